package gesture

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/detector"
)

// Classifier turns a detection frame into at most one gesture label.
//
// Priority:
//  1. Face rules (tongue out, eyes closed) when a face is present.
//  2. Pair rules (heart) when exactly two hands are present.
//  3. Hand rules (peace, thumbs up, open palm, fist) per hand in delivery
//     order; the first hand that yields a label wins.
type Classifier struct {
	faceRules []FaceRule
	pairRules []PairRule
	handRules []HandRule
	log       logrus.FieldLogger
}

// NewClassifier creates a Classifier with the built-in rule tables.
func NewClassifier(log logrus.FieldLogger) *Classifier {
	return NewClassifierWithRules(FaceRules, PairRules, HandRules, log)
}

// NewClassifierWithRules creates a Classifier with custom rule tables.
// Tables are evaluated in the order given.
func NewClassifierWithRules(face []FaceRule, pair []PairRule, hand []HandRule, log logrus.FieldLogger) *Classifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Classifier{
		faceRules: face,
		pairRules: pair,
		handRules: hand,
		log:       log.WithField("component", "classifier"),
	}
}

// Detect runs the rule tables against a single frame without touching any
// session state. It returns the matched label and true, or Default and false
// when nothing matched. Malformed frames return an error wrapping
// detector.ErrMalformedLandmarks and no label.
func (c *Classifier) Detect(frame detector.DetectionFrame) (Label, bool, error) {
	if err := frame.Validate(); err != nil {
		return Default, false, err
	}

	if frame.Face != nil {
		for _, rule := range c.faceRules {
			if rule.Match(frame.Face) {
				return rule.Label, true, nil
			}
		}
	}

	if len(frame.Hands) == 2 {
		a, b := &frame.Hands[0], &frame.Hands[1]
		for _, rule := range c.pairRules {
			if rule.Match(a, b) {
				return rule.Label, true, nil
			}
		}
	}

	for i := range frame.Hands {
		hand := &frame.Hands[i]
		for _, rule := range c.handRules {
			if rule.Match(hand) {
				return rule.Label, true, nil
			}
		}
	}

	return Default, false, nil
}

// Outcome is the result of folding one frame into a State.
type Outcome struct {
	// Label is the label to show after this frame.
	Label Label
	// Match is the label the rules produced for this frame alone.
	Match Label
	// Detected reports whether any rule matched this frame.
	Detected bool
	// Changed reports whether Label differs from the label shown before.
	Changed bool
}

// Step detects the gesture in frame and folds it into state at time now.
// A malformed frame returns an error and leaves state untouched.
func (c *Classifier) Step(frame detector.DetectionFrame, now time.Time, state *State) (Outcome, error) {
	match, detected, err := c.Detect(frame)
	if err != nil {
		return Outcome{Label: state.Current}, err
	}

	prev := state.Current
	shown := state.Observe(match, detected, now)
	return Outcome{
		Label:    shown,
		Match:    match,
		Detected: detected,
		Changed:  shown != prev,
	}, nil
}

// Classify detects the gesture in frame and folds it into state at time now,
// returning the label that should be shown. A malformed frame is skipped and
// leaves state untouched.
func (c *Classifier) Classify(frame detector.DetectionFrame, now time.Time, state *State) Label {
	if state == nil {
		label, _, err := c.Detect(frame)
		if err != nil {
			c.log.WithError(err).Debug("skipping frame")
		}
		return label
	}

	out, err := c.Step(frame, now, state)
	if err != nil {
		c.log.WithError(err).Debug("skipping frame")
	}
	return out.Label
}
