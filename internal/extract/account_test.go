package extract

import "testing"

func TestAccountExtractor_Extract(t *testing.T) {
	extractor := NewAccountExtractor(loadKeywords(t))

	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "masked with account keyword",
			text:   "Your a/c XXXX2323 debited with Rs.1,500.00",
			want:   "XXXX2323",
			wantOK: true,
		},
		{
			name:   "masked with asterisks",
			text:   "Card **4521 charged Rs.300",
			want:   "**4521",
			wantOK: true,
		},
		{
			name:   "masking preserved verbatim",
			text:   "account xx0987 balance updated",
			want:   "xx0987",
			wantOK: true,
		},
		{
			name:   "plain digits after account keyword",
			text:   "Account 12345678 credited with Rs.900",
			want:   "12345678",
			wantOK: true,
		},
		{
			name:   "plain digits without keyword are ignored",
			text:   "Your OTP is 445566",
			wantOK: false,
		},
		{
			name:   "no candidates",
			text:   "Thank you for banking with us",
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
			got, ok := extractor.Extract(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccountExtractor_PrimaryCandidate(t *testing.T) {
	extractor := NewAccountExtractor(loadKeywords(t))

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "keyword-adjacent candidate beats earlier one",
			text: "ref XXXX1111 for a/c XXXX2323",
			want: "XXXX2323",
		},
		{
			name: "leftmost wins when no keyword is adjacent",
			text: "between XXXX1111 and XXXX2222",
			want: "XXXX1111",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractor.Extract(tt.text)
			if !ok {
				t.Fatal("Extract() found no account")
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}
