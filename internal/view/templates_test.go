package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err, "templates should parse without error")
	require.NotNil(t, engine)
}

func TestRenderKnownPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	data := struct {
		Form   struct{ Email string }
		Errors map[string]string
	}{}
	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{Title: "Iniciar sesión", Data: data})
	require.NoError(t, err)
	require.Contains(t, rec.Body.String(), "Iniciar sesión")
}
