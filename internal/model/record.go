package model

import "time"

// Record is a single prediction made for a user together with the
// measurements it was made from. Records are never updated.
type Record struct {
	ID               string    `gorm:"primaryKey;size:32" bson:"-"`
	Username         string    `gorm:"index:idx_records_owner_date,priority:1;not null" bson:"username"`
	Date             time.Time `gorm:"index:idx_records_owner_date,priority:2;not null" bson:"date"`
	Pregnancies      int       `bson:"preg"`
	Glucose          int       `bson:"gluc"`
	BloodPressure    int       `bson:"bp"`
	SkinThickness    int       `bson:"skin"`
	Insulin          float64   `bson:"insulin"`
	BMI              float64   `bson:"bmi"`
	PedigreeFunction float64   `bson:"func"`
	Age              int       `bson:"age"`
	Prediction       int       `bson:"prediction"`
}

// Features returns the measurements in the order the classifier expects them
func (r *Record) Features() [8]float64 {
	return [8]float64{
		float64(r.Pregnancies),
		float64(r.Glucose),
		float64(r.BloodPressure),
		float64(r.SkinThickness),
		r.Insulin,
		r.BMI,
		r.PedigreeFunction,
		float64(r.Age),
	}
}

// Outcome is the human readable form of the prediction
func (r *Record) Outcome() string {
	if r.Prediction == 1 {
		return "Diabetic"
	}

	return "Not Diabetic"
}
