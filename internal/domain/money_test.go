package domain

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{5.005, 5.01},
		{5.004, 5.0},
		{2.675, 2.68},
		{10.0, 10.0},
		{25.014999, 25.01},
		{0.015, 0.02},
	}
	for _, tt := range cases {
		if got := Round2(tt.in); got != tt.want {
			t.Fatalf("Round2(%v)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRound2Idempotent(t *testing.T) {
	for _, v := range []float64{5.005, 19.999, 0.004999, 123.456} {
		once := Round2(v)
		if twice := Round2(once); twice != once {
			t.Fatalf("Round2 not idempotent for %v: %v then %v", v, once, twice)
		}
	}
}

func TestLineTotal(t *testing.T) {
	cases := []struct {
		qty   int
		price float64
		want  float64
	}{
		{2, 10.00, 20.00},
		{1, 5.005, 5.01},
		{3, 0.1, 0.30},
		{100, 0.015, 1.50},
	}
	for _, tt := range cases {
		if got := LineTotal(tt.qty, tt.price); got != tt.want {
			t.Fatalf("LineTotal(%d, %v)=%v, want %v", tt.qty, tt.price, got, tt.want)
		}
	}
}

func TestWithinCent(t *testing.T) {
	cases := []struct {
		a, b float64
		want bool
	}{
		{110.00, 110.00, true},
		{110.00, 110.01, true},
		{110.00, 109.99, true},
		{110.00, 109.50, false},
		{110.00, 110.02, false},
	}
	for _, tt := range cases {
		if got := WithinCent(tt.a, tt.b); got != tt.want {
			t.Fatalf("WithinCent(%v, %v)=%v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRemainingAmount(t *testing.T) {
	p := Payment{TotalAmount: 110.00, PaidAmount: 60.00}
	if got := p.RemainingAmount(); got != 50.00 {
		t.Fatalf("RemainingAmount=%v, want 50.00", got)
	}
	p.PaidAmount = 120.00
	if got := p.RemainingAmount(); got != 0 {
		t.Fatalf("RemainingAmount=%v, want 0 on overpayment", got)
	}
}
