package validators

import (
	"bitwise74/diapredict/internal/model"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MeasurementError reports which prediction form field couldn't be parsed
type MeasurementError struct {
	Field string
	Label string
	Empty bool
}

func (e *MeasurementError) Error() string {
	if e.Empty {
		return fmt.Sprintf("%s is required", e.Label)
	}

	return fmt.Sprintf("%s must be a valid number", e.Label)
}

// ParseMeasurements reads the eight prediction form fields using get
// (usually gin's PostForm) into a record. Nothing is defaulted: a missing
// or malformed field rejects the whole submission.
func ParseMeasurements(get func(string) string) (*model.Record, error) {
	var (
		r   model.Record
		err error
	)

	if r.Pregnancies, err = parseInt(get, "pregs", "Pregnancies"); err != nil {
		return nil, err
	}
	if r.Glucose, err = parseInt(get, "gluc", "Glucose"); err != nil {
		return nil, err
	}
	if r.BloodPressure, err = parseInt(get, "bp", "Blood Pressure"); err != nil {
		return nil, err
	}
	if r.SkinThickness, err = parseInt(get, "skin", "Skin Thickness"); err != nil {
		return nil, err
	}
	if r.Insulin, err = parseFloat(get, "insulin", "Insulin"); err != nil {
		return nil, err
	}
	if r.BMI, err = parseFloat(get, "bmi", "BMI"); err != nil {
		return nil, err
	}
	if r.PedigreeFunction, err = parseFloat(get, "func", "Diabetes Pedigree Function"); err != nil {
		return nil, err
	}
	if r.Age, err = parseInt(get, "age", "Age"); err != nil {
		return nil, err
	}

	return &r, nil
}

func parseInt(get func(string) string, field, label string) (int, error) {
	s := strings.TrimSpace(get(field))
	if s == "" {
		return 0, &MeasurementError{Field: field, Label: label, Empty: true}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &MeasurementError{Field: field, Label: label}
	}

	return n, nil
}

func parseFloat(get func(string) string, field, label string) (float64, error) {
	s := strings.TrimSpace(get(field))
	if s == "" {
		return 0, &MeasurementError{Field: field, Label: label, Empty: true}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &MeasurementError{Field: field, Label: label}
	}

	return f, nil
}
