// Package advisor recommends a crop from five soil and weather measurements.
//
// The classifier is a random forest trained offline and exported to a model
// directory (manifest.toml plus JSON trees). It is loaded once at startup and
// shared read-only across requests; if loading fails the gateway still starts
// and the predictor endpoint answers 503 until a model is deployed.
//
// Inputs are validated against fixed closed intervals before the classifier
// is consulted: n [0,200], p [0,150], k [0,200], humidity [0,100],
// rainfall [0,3000]. Validation is fail-fast: the first out-of-range field
// is reported and the rest are not examined.
package advisor
