package gesture

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ayusman/reactcam/internal/detector"
)

// blankHand has all 21 points at the origin, which matches no rule.
func blankHand() detector.HandLandmarks {
	return detector.HandLandmarks{
		Points:     make([]detector.Point3D, detector.NumLandmarks),
		Handedness: "Right",
		Score:      0.9,
	}
}

func hands(h ...detector.HandLandmarks) []detector.HandLandmarks {
	return h
}

func TestClassifier_Detect(t *testing.T) {
	c := NewClassifier(nil)

	bothFace := detector.NeutralFace()
	bothFace.Points[detector.LowerLipCenter].Y = bothFace.Points[detector.UpperLipCenter].Y + 0.06
	bothFace.Points[detector.LeftEyeLowerLid].Y = bothFace.Points[detector.LeftEyeUpperLid].Y + 0.001
	bothFace.Points[detector.RightEyeLowerLid].Y = bothFace.Points[detector.RightEyeUpperLid].Y + 0.001

	tests := []struct {
		name      string
		frame     detector.DetectionFrame
		wantLabel Label
		wantOK    bool
	}{
		{
			name:  "empty frame",
			frame: detector.DetectionFrame{},
		},
		{
			name:  "neutral face only",
			frame: detector.DetectionFrame{Face: detector.NeutralFace()},
		},
		{
			name:      "tongue out",
			frame:     detector.DetectionFrame{Face: detector.TongueOutFace()},
			wantLabel: TongueOut,
			wantOK:    true,
		},
		{
			name:      "eyes closed",
			frame:     detector.DetectionFrame{Face: detector.EyesClosedFace()},
			wantLabel: EyesClosed,
			wantOK:    true,
		},
		{
			name:      "tongue out wins over eyes closed",
			frame:     detector.DetectionFrame{Face: bothFace},
			wantLabel: TongueOut,
			wantOK:    true,
		},
		{
			name: "face label wins over hands",
			frame: detector.DetectionFrame{
				Face:  detector.EyesClosedFace(),
				Hands: detector.HeartLandmarks(),
			},
			wantLabel: EyesClosed,
			wantOK:    true,
		},
		{
			name: "heart with a neutral face",
			frame: detector.DetectionFrame{
				Face:  detector.NeutralFace(),
				Hands: detector.HeartLandmarks(),
			},
			wantLabel: Heart,
			wantOK:    true,
		},
		{
			name:      "heart overrides single-hand gestures",
			frame:     detector.DetectionFrame{Hands: detector.HeartLandmarks()},
			wantLabel: Heart,
			wantOK:    true,
		},
		{
			name:      "peace sign",
			frame:     detector.DetectionFrame{Hands: hands(detector.PeaceSignLandmarks())},
			wantLabel: PeaceSign,
			wantOK:    true,
		},
		{
			name:      "thumbs up",
			frame:     detector.DetectionFrame{Hands: hands(detector.ThumbsUpLandmarks())},
			wantLabel: ThumbsUp,
			wantOK:    true,
		},
		{
			name:      "open palm",
			frame:     detector.DetectionFrame{Hands: hands(detector.OpenPalmLandmarks())},
			wantLabel: OpenPalm,
			wantOK:    true,
		},
		{
			name:      "fist",
			frame:     detector.DetectionFrame{Hands: hands(detector.FistLandmarks())},
			wantLabel: Fist,
			wantOK:    true,
		},
		{
			name:      "first hand that matches wins",
			frame:     detector.DetectionFrame{Hands: hands(detector.FistLandmarks(), detector.PeaceSignLandmarks())},
			wantLabel: Fist,
			wantOK:    true,
		},
		{
			name:      "second hand used when first matches nothing",
			frame:     detector.DetectionFrame{Hands: hands(blankHand(), detector.ThumbsUpLandmarks())},
			wantLabel: ThumbsUp,
			wantOK:    true,
		},
		{
			name:  "blank hand",
			frame: detector.DetectionFrame{Hands: hands(blankHand())},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok, err := c.Detect(tt.frame)
			if err != nil {
				t.Fatalf("Detect() unexpected error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("Detect() ok = %v, want %v", ok, tt.wantOK)
			}
			if label != tt.wantLabel {
				t.Errorf("Detect() label = %v, want %v", label, tt.wantLabel)
			}
		})
	}
}

func TestClassifier_Detect_Malformed(t *testing.T) {
	c := NewClassifier(nil)

	nanHand := detector.OpenPalmLandmarks()
	nanHand.Points[detector.ThumbTip].X = math.NaN()

	frames := map[string]detector.DetectionFrame{
		"short hand": {Hands: hands(detector.HandLandmarks{Points: make([]detector.Point3D, 5)})},
		"short face": {Face: &detector.FaceLandmarks{Points: make([]detector.Point3D, 20)}},
		"NaN point":  {Hands: hands(nanHand)},
		"three hands": {Hands: hands(
			detector.FistLandmarks(), detector.FistLandmarks(), detector.FistLandmarks(),
		)},
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			label, ok, err := c.Detect(frame)
			if !errors.Is(err, detector.ErrMalformedLandmarks) {
				t.Errorf("Detect() error = %v, want ErrMalformedLandmarks", err)
			}
			if ok || label != Default {
				t.Errorf("Detect() = %v, %v; want Default, false", label, ok)
			}
		})
	}
}

func TestClassifier_Classify_ThumbsUpScenario(t *testing.T) {
	hand := blankHand()
	hand.Points[detector.ThumbTip].Y = 0.30
	hand.Points[detector.ThumbMCP].Y = 0.40
	hand.Points[detector.IndexTip].Y = 0.50
	hand.Points[detector.IndexPIP].Y = 0.40
	hand.Points[detector.MiddleTip].Y = 0.50
	hand.Points[detector.MiddlePIP].Y = 0.40
	hand.Points[detector.RingTip].Y = 0.50
	hand.Points[detector.RingPIP].Y = 0.40

	now := time.Unix(1000, 0)
	state := NewState(now)

	got := NewClassifier(nil).Classify(detector.DetectionFrame{Hands: hands(hand)}, now, state)

	if got != ThumbsUp {
		t.Errorf("Classify() = %v, want %v", got, ThumbsUp)
	}
	if state.Current != ThumbsUp || !state.LastDetectedAt.Equal(now) {
		t.Errorf("state = %+v, want ThumbsUp at %v", state, now)
	}
}

func TestClassifier_Classify_MalformedKeepsState(t *testing.T) {
	c := NewClassifier(nil)
	start := time.Unix(1000, 0)
	state := NewState(start)

	c.Classify(detector.DetectionFrame{Hands: hands(detector.FistLandmarks())}, start, state)
	before := state.Snapshot()

	// Long past the idle timeout, but the frame is unusable.
	later := start.Add(5 * time.Second)
	bad := detector.DetectionFrame{Hands: hands(detector.HandLandmarks{Points: make([]detector.Point3D, 3)})}
	got := c.Classify(bad, later, state)

	if got != Fist {
		t.Errorf("Classify() = %v, want %v", got, Fist)
	}
	if state.Snapshot() != before {
		t.Errorf("state changed on malformed frame: %+v -> %+v", before, state.Snapshot())
	}
}

func TestClassifier_Classify_EmptyFramesRevertAfterTimeout(t *testing.T) {
	c := NewClassifier(nil)
	start := time.Unix(1000, 0)
	state := NewState(start)

	c.Classify(detector.DetectionFrame{Face: detector.TongueOutFace()}, start, state)

	steps := []struct {
		offset time.Duration
		want   Label
	}{
		{100 * time.Millisecond, TongueOut},
		{500 * time.Millisecond, TongueOut},
		{time.Second, TongueOut},
		{time.Second + time.Millisecond, Default},
		{3 * time.Second, Default},
	}

	for _, step := range steps {
		got := c.Classify(detector.DetectionFrame{}, start.Add(step.offset), state)
		if got != step.want {
			t.Errorf("at +%v: Classify() = %v, want %v", step.offset, got, step.want)
		}
		if !state.LastDetectedAt.Equal(start) {
			t.Errorf("at +%v: LastDetectedAt moved to %v", step.offset, state.LastDetectedAt)
		}
	}
}

func TestClassifier_Classify_RepeatedDetectionRefreshes(t *testing.T) {
	c := NewClassifier(nil)
	start := time.Unix(1000, 0)
	state := NewState(start)
	frame := detector.DetectionFrame{Hands: hands(detector.OpenPalmLandmarks())}

	for i := 0; i < 5; i++ {
		now := start.Add(time.Duration(i) * 800 * time.Millisecond)
		got := c.Classify(frame, now, state)
		if got != OpenPalm {
			t.Fatalf("step %d: Classify() = %v, want %v", i, got, OpenPalm)
		}
		if !state.LastDetectedAt.Equal(now) {
			t.Fatalf("step %d: LastDetectedAt = %v, want %v", i, state.LastDetectedAt, now)
		}
	}

	// The label is still held because every frame refreshed the clock.
	last := state.LastDetectedAt
	if got := c.Classify(detector.DetectionFrame{}, last.Add(900*time.Millisecond), state); got != OpenPalm {
		t.Errorf("Classify() after refresh = %v, want %v", got, OpenPalm)
	}
}

func TestClassifier_Classify_NilState(t *testing.T) {
	c := NewClassifier(nil)
	if got := c.Classify(detector.DetectionFrame{Hands: hands(detector.FistLandmarks())}, time.Now(), nil); got != Fist {
		t.Errorf("Classify() = %v, want %v", got, Fist)
	}
	if got := c.Classify(detector.DetectionFrame{}, time.Now(), nil); got != Default {
		t.Errorf("Classify() = %v, want %v", got, Default)
	}
}

func TestClassifier_CustomRuleOrder(t *testing.T) {
	// Fist before open palm: a hand matching both now reports Fist.
	always := func(*detector.HandLandmarks) bool { return true }
	c := NewClassifierWithRules(nil, nil, []HandRule{
		{Label: Fist, Match: always},
		{Label: OpenPalm, Match: always},
	}, nil)

	label, ok, err := c.Detect(detector.DetectionFrame{Hands: hands(blankHand())})
	if err != nil || !ok || label != Fist {
		t.Errorf("Detect() = %v, %v, %v; want Fist, true, nil", label, ok, err)
	}
}

func TestClassifier_Step(t *testing.T) {
	c := NewClassifier(nil)
	start := time.Unix(1000, 0)
	state := NewState(start)

	out, err := c.Step(detector.DetectionFrame{Hands: hands(detector.PeaceSignLandmarks())}, start, state)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if out != (Outcome{Label: PeaceSign, Match: PeaceSign, Detected: true, Changed: true}) {
		t.Errorf("Step() = %+v", out)
	}

	out, _ = c.Step(detector.DetectionFrame{Hands: hands(detector.PeaceSignLandmarks())}, start.Add(time.Millisecond), state)
	if out.Changed || !out.Detected {
		t.Errorf("repeat Step() = %+v", out)
	}

	out, _ = c.Step(detector.DetectionFrame{}, start.Add(500*time.Millisecond), state)
	if out != (Outcome{Label: PeaceSign, Match: Default}) {
		t.Errorf("held Step() = %+v", out)
	}

	out, _ = c.Step(detector.DetectionFrame{}, start.Add(2*time.Second), state)
	if out != (Outcome{Label: Default, Match: Default, Changed: true}) {
		t.Errorf("reverted Step() = %+v", out)
	}

	bad := detector.DetectionFrame{Hands: hands(detector.HandLandmarks{Points: make([]detector.Point3D, 2)})}
	out, err = c.Step(bad, start.Add(3*time.Second), state)
	if !errors.Is(err, detector.ErrMalformedLandmarks) {
		t.Errorf("Step() error = %v", err)
	}
	if out.Changed || out.Label != Default {
		t.Errorf("malformed Step() = %+v", out)
	}
}
