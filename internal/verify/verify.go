// Package verify decides whether a live credential sample matches a
// student's enrolled credentials.
package verify

import (
	"context"
	"errors"
	"sync"

	"campusgate/internal/face"
	"campusgate/internal/model"
)

// Reason classifies a verification outcome.
type Reason string

const (
	ReasonOK                 Reason = "ok"
	ReasonDisabled           Reason = "face_disabled"
	ReasonOverride           Reason = "override"
	ReasonCredentialMismatch Reason = "credential_mismatch"
	ReasonNoEnrolledFace     Reason = "no_enrolled_face"
	ReasonNoFaceDetected     Reason = "no_face_detected"
	ReasonEncodingFailure    Reason = "encoding_failure"
	ReasonFaceMismatch       Reason = "face_mismatch"
)

// Result is the outcome of one verification, with the measured encoding
// distance when a comparison actually ran.
type Result struct {
	OK       bool     `json:"ok"`
	Reason   Reason   `json:"reason"`
	Distance *float64 `json:"distance,omitempty"`
}

// Sample is one live credential presented at a scan point. New credential
// kinds implement check; call sites only ever see Gate.Verify.
type Sample interface {
	check(ctx context.Context, g *Gate, s *model.Student) Result
}

// Gate owns the verification state: the face service client, the artifact
// store, the match tolerance, and the operator-facing switches. The enabled
// flag is mutated from the admin API while scans read it, hence the mutex.
type Gate struct {
	client    *face.Client
	store     *face.Store
	tolerance float64
	override  string

	mu      sync.Mutex
	enabled bool
}

// NewGate builds a gate. overridePassword may be empty to disable the
// operator bypass entirely.
func NewGate(client *face.Client, store *face.Store, tolerance float64, overridePassword string, enabled bool) *Gate {
	return &Gate{
		client:    client,
		store:     store,
		tolerance: tolerance,
		override:  overridePassword,
		enabled:   enabled,
	}
}

// Enabled reports whether face verification is currently on.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// SetEnabled flips face verification on or off for the whole process.
func (g *Gate) SetEnabled(v bool) {
	g.mu.Lock()
	g.enabled = v
	g.mu.Unlock()
}

// Verify runs every sample in order and returns the first failure, so a
// fingerprint mismatch is reported before any face work happens.
func (g *Gate) Verify(ctx context.Context, s *model.Student, samples ...Sample) Result {
	for _, sample := range samples {
		if res := sample.check(ctx, g, s); !res.OK {
			return res
		}
	}
	return Result{OK: true, Reason: ReasonOK}
}

// Fingerprint is an exact-match string credential.
type Fingerprint struct {
	Value string
}

func (f Fingerprint) check(_ context.Context, _ *Gate, s *model.Student) Result {
	if s.Fingerprint == "" || s.Fingerprint != f.Value {
		return Result{Reason: ReasonCredentialMismatch}
	}
	return Result{OK: true, Reason: ReasonOK}
}

// FaceImage is a live base64 frame, optionally carrying the operator
// override password.
type FaceImage struct {
	ImageB64 string
	Override string
}

func (f FaceImage) check(ctx context.Context, g *Gate, s *model.Student) Result {
	if !g.Enabled() {
		return Result{OK: true, Reason: ReasonDisabled}
	}
	if g.override != "" && f.Override == g.override {
		return Result{OK: true, Reason: ReasonOverride}
	}

	if s.FaceEncodingPath == "" {
		return Result{Reason: ReasonNoEnrolledFace}
	}
	reference, err := g.store.LoadEncoding(s.FaceEncodingPath)
	if err != nil {
		return Result{Reason: ReasonNoEnrolledFace}
	}

	probe, err := g.client.Embed(ctx, f.ImageB64)
	if err != nil {
		if errors.Is(err, face.ErrNoFace) {
			return Result{Reason: ReasonNoFaceDetected}
		}
		return Result{Reason: ReasonEncodingFailure}
	}

	dist := face.Distance(reference, probe)
	res := Result{OK: dist <= g.tolerance, Distance: &dist}
	if res.OK {
		res.Reason = ReasonOK
	} else {
		res.Reason = ReasonFaceMismatch
	}
	return res
}
