package stream

import "testing"

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		goos    string
		want    string
		wantErr bool
	}{
		{"encoded unix path", "%2Fhome%2Fme%2FFood%20Videos%2Fa.mp4", "linux", "/home/me/Food Videos/a.mp4", false},
		{"plain unix path", "/home/me/a.mp4", "linux", "/home/me/a.mp4", false},
		{"leading slashes collapsed", "///home/me/a.mp4", "darwin", "/home/me/a.mp4", false},
		{"missing leading slash", "home/me/a.mp4", "linux", "/home/me/a.mp4", false},
		{"video scheme", "video:///home/me/a.mp4", "linux", "/home/me/a.mp4", false},
		{"local-video scheme encoded", "local-video://%2Fhome%2Fa.mp4", "linux", "/home/a.mp4", false},
		{"windows drive without colon", "/C/Users/me/a.mp4", "windows", "C:/Users/me/a.mp4", false},
		{"windows drive encoded", "C%3A%5CUsers%5Cme%5Ca.mp4", "windows", "C:/Users/me/a.mp4", false},
		{"windows scheme", "video://D/clips/a.mkv", "windows", "D:/clips/a.mkv", false},
		{"dot segments cleaned", "/home/me/../me/a.mp4", "linux", "/home/me/a.mp4", false},
		{"empty", "", "linux", "", true},
		{"bad escape", "%zz", "linux", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePath(tt.raw, tt.goos)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolvePath(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolvePath(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestURLForRoundTrip(t *testing.T) {
	const p = "/srv/videos/Food Videos/a #1.mp4"
	u := URLFor(p)
	got, err := resolvePath(u[len(RoutePrefix):], "linux")
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("round trip = %q, want %q", got, p)
	}
}
