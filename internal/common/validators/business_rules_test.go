package validators

import (
	"testing"
	"time"
)

func TestValidateCoordinates(t *testing.T) {
	if err := ValidateCoordinates(28.6, 77.2); err != nil {
		t.Fatalf("expected valid coordinates, got %v", err)
	}
	if err := ValidateCoordinates(0, 0); err == nil {
		t.Fatal("expected (0,0) sentinel to be rejected")
	}
	if err := ValidateCoordinates(91, 0); err == nil {
		t.Fatal("expected out-of-range latitude to be rejected")
	}
}

func TestValidateSpeed(t *testing.T) {
	if err := ValidateSpeed(-1); err == nil {
		t.Fatal("expected negative speed to be rejected")
	}
	if err := ValidateSpeed(301); err == nil {
		t.Fatal("expected implausible speed to be rejected")
	}
	if err := ValidateSpeed(60); err != nil {
		t.Fatalf("expected valid speed, got %v", err)
	}
}

func TestValidateAccuracyAndHeading(t *testing.T) {
	if err := ValidateAccuracy(1001); err == nil {
		t.Fatal("expected poor accuracy to be rejected")
	}
	if err := ValidateHeading(361); err == nil {
		t.Fatal("expected out-of-range heading to be rejected")
	}
	if err := ValidateHeading(180); err != nil {
		t.Fatalf("expected valid heading, got %v", err)
	}
}

func TestValidatePageLimit(t *testing.T) {
	if err := ValidatePageLimit(0); err == nil {
		t.Fatal("expected zero limit to be rejected")
	}
	if err := ValidatePageLimit(1001); err == nil {
		t.Fatal("expected over-max limit to be rejected")
	}
}

func TestValidateTimeRange(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Hour)
	if err := ValidateTimeRange(start, end, time.Hour); err == nil {
		t.Fatal("expected range exceeding max to be rejected")
	}
	if err := ValidateTimeRange(end, start, time.Hour); err == nil {
		t.Fatal("expected inverted range to be rejected")
	}
}
