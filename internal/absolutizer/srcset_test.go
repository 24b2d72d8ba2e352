package absolutizer

import "testing"

func TestAbsolutizeSrcset(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		base     string
		expected string
	}{
		{
			name:     "density descriptors",
			value:    "img1.jpg 1x, img2.jpg 2x",
			base:     "https://x.com/a/",
			expected: "https://x.com/a/img1.jpg 1x, https://x.com/a/img2.jpg 2x",
		},
		{
			name:     "width descriptors and extra whitespace",
			value:    "  small.jpg   480w ,large.jpg 1080w",
			base:     "https://x.com/a/",
			expected: "https://x.com/a/small.jpg 480w, https://x.com/a/large.jpg 1080w",
		},
		{
			name:     "no descriptor",
			value:    "/only.png",
			base:     "https://x.com/a/",
			expected: "https://x.com/only.png",
		},
		{
			name:     "already absolute",
			value:    "https://cdn.x.com/a.png 1x",
			base:     "https://x.com/a/",
			expected: "https://cdn.x.com/a.png 1x",
		},
		{
			name:     "data uri with comma",
			value:    "data:image/png;base64,AAAA 1x, b.png 2x",
			base:     "https://x.com/a/",
			expected: "data:image/png;base64,AAAA 1x, https://x.com/a/b.png 2x",
		},
		{
			name:     "malformed candidate passes through",
			value:    "a.png 1x 2x, b.png 2x",
			base:     "https://x.com/a/",
			expected: "a.png 1x 2x, https://x.com/a/b.png 2x",
		},
		{
			name:     "empty",
			value:    "",
			base:     "https://x.com/a/",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := AbsolutizeSrcset(tc.value, tc.base)
			if got != tc.expected {
				t.Fatalf("AbsolutizeSrcset(%q) = %q, want %q", tc.value, got, tc.expected)
			}
			if again := AbsolutizeSrcset(got, tc.base); again != got {
				t.Fatalf("second pass changed %q to %q", got, again)
			}
		})
	}
}

func TestAbsolutize_SrcsetAttribute(t *testing.T) {
	in := `<img srcset="img1.jpg 1x, img2.jpg 2x" alt="">`
	want := `<img srcset="https://x.com/a/img1.jpg 1x, https://x.com/a/img2.jpg 2x" alt="">`
	if got := Absolutize(in, "https://x.com/a/"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
