// ABOUTME: Crop recommendation from five bounded soil/weather inputs
// ABOUTME: Validates ranges fail-fast and delegates to a loaded classifier

package advisor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrModelUnavailable is returned when no classifier is loaded. Distinct from
// validation errors: the operator can fix it by deploying a model.
var ErrModelUnavailable = errors.New("model not loaded on server")

// OutOfRangeError reports the first input outside its closed interval.
type OutOfRangeError struct {
	Field string
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g", e.Field, e.Min, e.Max)
}

// PredictionError wraps a classifier failure. The classifier is called once,
// synchronously, with no retry.
type PredictionError struct {
	Detail string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("error during prediction: %s", e.Detail)
}

// Classifier is the opaque prediction function the advisor wraps. The loaded
// instance is read-only after initialization and safe to share across requests.
type Classifier interface {
	Predict(features []float64) (string, error)
}

// Input holds the five numeric features, in model order.
type Input struct {
	N        float64 `json:"n"`
	P        float64 `json:"p"`
	K        float64 `json:"k"`
	Humidity float64 `json:"humidity"`
	Rainfall float64 `json:"rainfall"`
}

// Recommendation is a successful prediction result.
type Recommendation struct {
	Crop        string
	Input       Input
	GeneratedAt string
}

// bound is a closed interval, inclusive both ends.
type bound struct {
	field string
	min   float64
	max   float64
}

// Validation order matches input order; the first failing field wins.
var bounds = []bound{
	{"n", 0, 200},
	{"p", 0, 150},
	{"k", 0, 200},
	{"humidity", 0, 100},
	{"rainfall", 0, 3000},
}

// IST is the timezone recommendations are timestamped in (UTC+05:30).
var IST = time.FixedZone("IST", 5*60*60+30*60)

const timestampLayout = "03:04 PM IST on January 02, 2006"

// Advisor validates inputs and forwards them to the classifier.
type Advisor struct {
	model Classifier
	now   func() time.Time
}

// New creates an advisor over the given classifier. A nil classifier is
// allowed: the advisor runs degraded and every Recommend returns
// ErrModelUnavailable.
func New(model Classifier) *Advisor {
	return &Advisor{
		model: model,
		now:   time.Now,
	}
}

// Loaded reports whether a classifier is available.
func (a *Advisor) Loaded() bool {
	return a.model != nil
}

// Recommend validates the input and returns the predicted crop label
// uppercased, with the inputs echoed and a localized timestamp.
func (a *Advisor) Recommend(in Input) (*Recommendation, error) {
	values := []float64{in.N, in.P, in.K, in.Humidity, in.Rainfall}
	for i, b := range bounds {
		if values[i] < b.min || values[i] > b.max {
			return nil, &OutOfRangeError{Field: b.field, Min: b.min, Max: b.max}
		}
	}

	if a.model == nil {
		return nil, ErrModelUnavailable
	}

	label, err := a.model.Predict(values)
	if err != nil {
		return nil, &PredictionError{Detail: err.Error()}
	}

	return &Recommendation{
		Crop:        strings.ToUpper(label),
		Input:       in,
		GeneratedAt: a.now().In(IST).Format(timestampLayout),
	}, nil
}
