package internal

import "testing"

func TestPhotoFilename(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "static flickr url",
			url:  "https://live.staticflickr.com/65535/53211_ab12cd_m.jpg",
			want: "53211_ab12cd_m.jpg",
		},
		{
			name: "query string ignored",
			url:  "https://farm1.staticflickr.com/2/3_x.jpg?zz=1",
			want: "3_x.jpg",
		},
		{
			name: "escaped characters sanitized",
			url:  "https://example.com/img/a%20b.png",
			want: "a_b.png",
		},
		{
			name:    "no path",
			url:     "https://example.com",
			wantErr: true,
		},
		{
			name:    "trailing slash only",
			url:     "https://example.com/",
			wantErr: true,
		},
		{
			name:    "only dots",
			url:     "http://h/photos/...",
			wantErr: true,
		},
		{
			name: "leading dots trimmed",
			url:  "http://h/photos/..hidden.jpg",
			want: "hidden.jpg",
		},
		{
			name:    "unparsable",
			url:     "http://[::1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PhotoFilename(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PhotoFilename(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PhotoFilename(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my photo!.jpg", "my_photo_.jpg"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{".hidden", "hidden"},
		{"снимка.jpg", "снимка.jpg"},
		{"a/b\\c", "a_b_c"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
