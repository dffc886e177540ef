// Package progress owns the weighted stage range table and the estimator
// that converts (stage, sub-progress) reports into a monotonic overall
// percentage plus a linear remaining-time extrapolation.
//
// Stage weights are configuration, validated once at startup; nothing in
// this package mutates them afterwards.
package progress
