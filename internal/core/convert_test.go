package core

import (
	"errors"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseMoney Tests
// ----------------------------------------------------------------------------

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantValue string // FloatString(3) of the parsed value
	}{
		// Valid: Basic integers
		{name: "positive integer", input: "123", wantValue: "123.000"},
		{name: "zero", input: "0", wantValue: "0.000"},
		{name: "negative integer", input: "-456", wantValue: "-456.000"},
		{name: "explicit plus", input: "+7", wantValue: "7.000"},

		// Valid: Decimals
		{name: "decimal number", input: "123.45", wantValue: "123.450"},
		{name: "leading decimal point", input: ".99", wantValue: "0.990"},
		{name: "trailing decimal point", input: "99.", wantValue: "99.000"},
		{name: "three places", input: "100.005", wantValue: "100.005"},
		{name: "surrounding space", input: "  12.5 ", wantValue: "12.500"},

		// Valid: Exponent form
		{name: "exponent", input: "1e5", wantValue: "100000.000"},
		{name: "upper exponent with sign", input: "2.5E+2", wantValue: "250.000"},
		{name: "negative exponent", input: "125e-3", wantValue: "0.125"},

		// Invalid
		{name: "empty", input: "", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "currency symbol", input: "$12", wantErr: true},
		{name: "thousands separator", input: "1,000", wantErr: true},
		{name: "huge exponent", input: "1e999", wantErr: true},
		{name: "bare exponent", input: "e5", wantErr: true},
		{name: "dangling exponent", input: "1e", wantErr: true},
		{name: "lone dot", input: ".", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMoney) {
					t.Fatalf("ParseMoney(%q) error = %v, want ErrInvalidMoney", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Valid {
				t.Fatalf("ParseMoney(%q) returned invalid numeric", tt.input)
			}
			if s := MoneyRat(got).FloatString(3); s != tt.wantValue {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.input, s, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Money Arithmetic Tests
// ----------------------------------------------------------------------------

func mustMoney(t *testing.T, s string) Money {
	t.Helper()
	m, err := ParseMoney(s)
	if err != nil {
		t.Fatalf("ParseMoney(%q): %v", s, err)
	}
	return m
}

func TestSumMoney_FormatMoney(t *testing.T) {
	tests := []struct {
		name    string
		amounts []string
		want    string
	}{
		{name: "no amounts", amounts: nil, want: "0.00"},
		{name: "integers", amounts: []string{"100", "51"}, want: "151.00"},
		{name: "rounds up past half", amounts: []string{"100.005", "50.001"}, want: "150.01"},
		{name: "exact half rounds away from zero", amounts: []string{"0.125"}, want: "0.13"},
		{name: "below half rounds down", amounts: []string{"0.124"}, want: "0.12"},
		{name: "many small amounts stay exact", amounts: []string{"0.1", "0.2", "0.3"}, want: "0.60"},
		{name: "large", amounts: []string{"99999999999.99", "0.01"}, want: "100000000000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := make([]Money, len(tt.amounts))
			for i, a := range tt.amounts {
				amounts[i] = mustMoney(t, a)
			}
			if got := FormatMoney(SumMoney(amounts...)); got != tt.want {
				t.Errorf("FormatMoney(SumMoney(%v)) = %q, want %q", tt.amounts, got, tt.want)
			}
		})
	}
}

func TestSumMoney_SkipsInvalid(t *testing.T) {
	got := FormatMoney(SumMoney(Money{}, mustMoney(t, "5")))
	if got != "5.00" {
		t.Errorf("got %q, want 5.00", got)
	}
}

func TestMoneyText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000", "1000"},
		{"12.345", "12.345"},
		{"0.10", "0.10"},
		{"-3.5", "-3.5"},
	}

	for _, tt := range tests {
		if got := MoneyText(mustMoney(t, tt.input)); got != tt.want {
			t.Errorf("MoneyText(%q) = %q, want %q", tt.input, got, tt.want)
		}
		back := mustMoney(t, MoneyText(mustMoney(t, tt.input)))
		if MoneyRat(back).Cmp(MoneyRat(mustMoney(t, tt.input))) != 0 {
			t.Errorf("MoneyText(%q) does not parse back to the same value", tt.input)
		}
	}
}

// ----------------------------------------------------------------------------
// Date Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "24/03/2017", want: time.Date(2017, 3, 24, 0, 0, 0, 0, time.UTC)},
		{input: "01/05/2020", want: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)},
		{input: "29/02/2020", want: time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)},
		{input: "1/5/2020", wantErr: true},
		{input: "2020-05-01", wantErr: true},
		{input: "05/13/2020", wantErr: true},
		{input: "29/02/2019", wantErr: true},
		{input: "01/05/20", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) = %v, want error", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)); got != "2020-05-01" {
		t.Errorf("FormatDate = %q, want 2020-05-01", got)
	}
}

// ----------------------------------------------------------------------------
// Export Helper Tests
// ----------------------------------------------------------------------------

func TestReverse(t *testing.T) {
	tests := map[string]string{
		"hello":   "olleh",
		"":        "",
		"a":       "a",
		"abc def": "fed cba",
		"héllo":   "olléh",
		"日本語":     "語本日",
	}
	for in, want := range tests {
		if got := Reverse(in); got != want {
			t.Errorf("Reverse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		input   string
		want    []int64
		wantErr bool
	}{
		{input: "1,3", want: []int64{1, 3}},
		{input: " 1 , 2 ,", want: []int64{1, 2}},
		{input: "", want: nil},
		{input: "1,x", wantErr: true},
		{input: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseIDs(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("ParseIDs(%q) error = %v, want ErrInvalidFilter", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIDs(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseIDs(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseIDs(%q) = %v, want %v", tt.input, got, tt.want)
				break
			}
		}
	}
}

func TestCompareNameID(t *testing.T) {
	if compareNameID("Adam", 5, "Zed", 1) >= 0 {
		t.Error("name should order before id")
	}
	if compareNameID("Adam", 1, "Adam", 2) >= 0 {
		t.Error("equal names should order by id")
	}
	// Byte-wise: uppercase sorts before lowercase.
	if compareNameID("Zed", 1, "adam", 1) >= 0 {
		t.Error("comparison should be byte-wise")
	}
	if compareNameID("Adam", 1, "Adam", 1) != 0 {
		t.Error("identical keys should compare equal")
	}
}
