package service

import (
	"errors"
	"testing"

	"latentchat/internal/domain"
	"latentchat/internal/router"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func newSettingsStore(t *testing.T) *SettingsStore {
	t.Helper()
	r, err := router.New()
	if err != nil {
		t.Fatalf("router.New() error: %v", err)
	}
	return NewSettingsStore(r)
}

func TestSettingsDefaults(t *testing.T) {
	st := newSettingsStore(t)

	got := st.Get()
	want := domain.GenerationSettings{
		Model:  domain.DefaultModel,
		Width:  512,
		Height: 512,
		Count:  4,
		Steps:  30,
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	st := newSettingsStore(t)

	got, err := st.Update(&UpdateSettingsRequest{Steps: intPtr(50)})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got.Steps != 50 {
		t.Errorf("steps = %d, want 50", got.Steps)
	}
	// untouched fields keep their value
	if got.Width != 512 || got.Count != 4 {
		t.Errorf("unrelated fields changed: %+v", got)
	}
}

func TestSettingsValidation(t *testing.T) {
	tests := []struct {
		name string
		req  UpdateSettingsRequest
	}{
		{name: "width below range", req: UpdateSettingsRequest{Width: intPtr(256)}},
		{name: "height above range", req: UpdateSettingsRequest{Height: intPtr(2048)}},
		{name: "count zero", req: UpdateSettingsRequest{Count: intPtr(0)}},
		{name: "steps above range", req: UpdateSettingsRequest{Steps: intPtr(151)}},
		{name: "unknown model", req: UpdateSettingsRequest{Model: strPtr("dall-e-9000")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newSettingsStore(t)

			if _, err := st.Update(&tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Update() error = %v, want ErrValidation", err)
			}
			// failed updates leave the settings untouched
			if got := st.Get(); got != domain.DefaultSettings() {
				t.Errorf("settings mutated by rejected update: %+v", got)
			}
		})
	}
}

func TestSettingsModelMinSizePushUp(t *testing.T) {
	st := newSettingsStore(t)

	got, err := st.Update(&UpdateSettingsRequest{Model: strPtr("stable-diffusion-768-v2-1")})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got.Width < 768 || got.Height < 768 {
		t.Errorf("dimensions = %dx%d, want pushed up to the model minimum 768", got.Width, got.Height)
	}
}
