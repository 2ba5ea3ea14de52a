package extract

import "testing"

func TestAmountParser_Extract(t *testing.T) {
	parser := NewAmountParser(loadKeywords(t))

	tests := []struct {
		name     string
		text     string
		want     float64
		wantCue  bool
		wantOK   bool
	}{
		{
			name:    "symbol prefixed with separators",
			text:    "Your a/c XXXX2323 debited with Rs.1,500.00 on 15-Dec-2024",
			want:    1500.00,
			wantCue: true,
			wantOK:  true,
		},
		{
			name:    "rupee symbol",
			text:    "₹2,500 debited from your account",
			want:    2500,
			wantCue: true,
			wantOK:  true,
		},
		{
			name:    "INR abbreviation",
			text:    "INR 340.75 spent on your card",
			want:    340.75,
			wantCue: true,
			wantOK:  true,
		},
		{
			name:    "currency suffix",
			text:    "You paid 199.00 INR at the store",
			want:    199.00,
			wantCue: true,
			wantOK:  true,
		},
		{
			name:    "indian digit grouping",
			text:    "Rs.1,23,456.78 credited to your account",
			want:    123456.78,
			wantCue: true,
			wantOK:  true,
		},
		{
			name:    "plain decimal without cue",
			text:    "debited 450.50 from account",
			want:    450.50,
			wantCue: false,
			wantOK:  true,
		},
		{
			name:    "worded amount",
			text:    "Rs. One Thousand credited to your account",
			want:    1000,
			wantCue: true,
			wantOK:  true,
		},
		{
			name:    "worded compound amount",
			text:    "Two Thousand Five Hundred rupees debited",
			want:    2500,
			wantCue: false,
			wantOK:  true,
		},
		{
			name:    "worded lakh scale",
			text:    "Rs. Two Lakh credited via NEFT",
			want:    200000,
			wantCue: true,
			wantOK:  true,
		},
		{
			name:   "no amount at all",
			text:   "Your account statement is ready",
			wantOK: false,
		},
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.Extract(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Value != tt.want {
				t.Errorf("Extract() value = %v, want %v", got.Value, tt.want)
			}
			if got.HasCurrencyCue != tt.wantCue {
				t.Errorf("Extract() cue = %v, want %v", got.HasCurrencyCue, tt.wantCue)
			}
		})
	}
}

func TestAmountParser_PrimaryAmountPolicy(t *testing.T) {
	parser := NewAmountParser(loadKeywords(t))

	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "cued candidate beats earlier uncued one",
			text: "Ref 99.50 confirmed, Rs.750.00 debited",
			want: 750.00,
		},
		{
			name: "first candidate wins without any cue",
			text: "debited 120.00 then 999.00",
			want: 120.00,
		},
		{
			name: "masked account digits are not amounts",
			text: "a/c XXXX2323 debited Rs.45.00",
			want: 45.00,
		},
		{
			name: "date components are not amounts",
			text: "debited 1,500.00 on 15-12-2024",
			want: 1500.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.Extract(tt.text)
			if !ok {
				t.Fatal("Extract() returned no amount")
			}
			if got.Value != tt.want {
				t.Errorf("Extract() value = %v, want %v", got.Value, tt.want)
			}
		})
	}
}

func TestWordsToNumber(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  float64
	}{
		{"single unit", []string{"five"}, 5},
		{"teen", []string{"fifteen"}, 15},
		{"compound tens", []string{"forty", "two"}, 42},
		{"hundred", []string{"three", "hundred"}, 300},
		{"bare hundred", []string{"hundred"}, 100},
		{"thousand", []string{"one", "thousand"}, 1000},
		{"bare thousand", []string{"thousand"}, 1000},
		{"hundred and tens", []string{"one", "hundred", "and", "twenty", "five"}, 125},
		{"thousand with remainder", []string{"two", "thousand", "five", "hundred"}, 2500},
		{"lakh", []string{"two", "lakh"}, 200000},
		{"crore", []string{"one", "crore"}, 10000000},
		{"million", []string{"three", "million"}, 3000000},
		{"mixed scales", []string{"one", "lakh", "fifty", "thousand"}, 150000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wordsToNumber(tt.words); got != tt.want {
				t.Errorf("wordsToNumber(%v) = %v, want %v", tt.words, got, tt.want)
			}
		})
	}
}
