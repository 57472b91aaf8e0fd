package window

import "testing"

func TestBuilderOptions(t *testing.T) {
	tests := []struct {
		name       string
		opts       []WindowBuilderOption
		wantTitle  string
		wantWidth  int
		wantHeight int
		wantErr    bool
	}{
		{
			name:       "defaults",
			wantTitle:  "oxy-chart",
			wantWidth:  1280,
			wantHeight: 720,
		},
		{
			name:       "empty title keeps default",
			opts:       []WindowBuilderOption{WithTitle(""), WithSize(800, 600)},
			wantTitle:  "oxy-chart",
			wantWidth:  800,
			wantHeight: 600,
		},
		{
			name:       "size clamped to limits",
			opts:       []WindowBuilderOption{WithTitle("cpu"), WithMinSize(400, 300), WithMaxSize(1000, 800), WithSize(100, 5000)},
			wantTitle:  "cpu",
			wantWidth:  400,
			wantHeight: 800,
		},
		{
			name:    "inverted limits",
			opts:    []WindowBuilderOption{WithMinSize(900, 100), WithMaxSize(800, 600)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &chartWindow{
				title:     "oxy-chart",
				minWidth:  320,
				minHeight: 200,
				maxWidth:  3840,
				maxHeight: 2160,
				width:     1280,
				height:    720,
			}
			for _, opt := range tt.opts {
				opt(w)
			}
			err := w.clampSize()
			if tt.wantErr {
				if err == nil {
					t.Fatal("clampSize succeeded with inverted limits")
				}
				return
			}
			if err != nil {
				t.Fatalf("clampSize: %v", err)
			}
			if w.title != tt.wantTitle || w.width != tt.wantWidth || w.height != tt.wantHeight {
				t.Errorf("got %q %dx%d, want %q %dx%d", w.title, w.width, w.height, tt.wantTitle, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestClosedWindowIsNotRunning(t *testing.T) {
	w := &chartWindow{}
	if w.IsRunning() {
		t.Error("window without a platform window reports running")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close on an unopened window: %v", err)
	}
	if w.SurfaceDescriptor() != nil {
		t.Error("SurfaceDescriptor should be nil without a platform window")
	}
	w.RequestClose()
}
