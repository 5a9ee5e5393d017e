package coolproto

import (
	"errors"
	"testing"
)

func TestCurveValidate(t *testing.T) {
	tests := []struct {
		name   string
		curve  Curve
		points int
		ok     bool
	}{
		{"valid", Curve{20, 30, 40}, 3, true},
		{"valid plateau", Curve{20, 20, 100}, 3, true},
		{"too short", Curve{50, 40, 60}, 9, false},
		{"too long", Curve{20, 30, 40, 50}, 3, false},
		{"dip rejected", Curve{50, 40, 60}, 3, false},
		{"over 100 percent", Curve{20, 30, 110}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.curve.Validate(tt.points)
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrInvalidValue) {
					t.Errorf("Validate() = %v, want ErrInvalidValue", err)
				}
			}
		})
	}
}

func TestFlatCurve(t *testing.T) {
	c := FlatCurve(40, 35)
	if err := c.Validate(40); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	for i := 0; i < 39; i++ {
		if c[i] != 35 {
			t.Fatalf("point %d = %d, want 35", i, c[i])
		}
	}
	if c[39] != 100 {
		t.Errorf("last point = %d, want 100", c[39])
	}
}
