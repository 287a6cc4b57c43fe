package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// fakeBackend answers the csrf and process endpoints and records the specialities it received
func fakeBackend(t *testing.T, received *[]string, calls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/test/csrf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("csrf-token"))
	})
	mux.HandleFunc("/api/patients/process", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var body struct {
			Specialite string `json:"specialite"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*received = append(*received, body.Specialite)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hopitalNom":"Hôpital Nord","specialite":"` + body.Specialite + `","delai":12,"litReserve":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupCLIEnv(t *testing.T, backendURL string) {
	t.Helper()
	{
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	t.Setenv("BACKEND_URL", backendURL)
	t.Setenv("LOG_LEVEL", "error")
}

func TestSpecialitiesCommandFiltersByPrefix(t *testing.T) {
	out, err := executeCLI(t, "specialities", "cardio")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "Cardiologie")
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(strings.ToLower(line), "cardio"), line)
	}
}

func TestSpecialitiesCommandListsCatalog(t *testing.T) {
	out, err := executeCLI(t, "specialities")
	require.NoError(t, err)
	assert.Contains(t, out, "Médecine d'urgence")
	assert.NotContains(t, out, "\n\n")
}

func TestReserveCommandSubmitsKnownSpeciality(t *testing.T) {
	var received []string
	var calls int32
	srv := fakeBackend(t, &received, &calls)
	setupCLIEnv(t, srv.URL)

	out, err := executeCLI(t, "reserve", "--specialite", "  cardiologie ")
	require.NoError(t, err)

	assert.Equal(t, []string{"Cardiologie"}, received)
	assert.Contains(t, out, "Hôpital Nord")
}

func TestReserveCommandUnknownSpecialityWithoutUrgency(t *testing.T) {
	var received []string
	var calls int32
	srv := fakeBackend(t, &received, &calls)
	setupCLIEnv(t, srv.URL)

	out, err := executeCLI(t, "reserve", "--specialite", "astrologie")
	require.ErrorIs(t, err, errUrgencyDeclined)

	assert.Contains(t, out, "inconnue")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestReserveCommandUnknownSpecialityWithUrgency(t *testing.T) {
	var received []string
	var calls int32
	srv := fakeBackend(t, &received, &calls)
	setupCLIEnv(t, srv.URL)

	_, err := executeCLI(t, "reserve", "--specialite", "astrologie", "--urgency")
	require.NoError(t, err)

	assert.Equal(t, []string{"Médecine d'urgence"}, received)
}

func TestReserveCommandRejectsInvalidDetails(t *testing.T) {
	var received []string
	var calls int32
	srv := fakeBackend(t, &received, &calls)
	setupCLIEnv(t, srv.URL)

	_, err := executeCLI(t, "reserve", "--specialite", "cardiologie", "--lat", "200", "--responsable", "   ")
	require.ErrorIs(t, err, errInvalidDetails)
	assert.Contains(t, err.Error(), "latitude")
	assert.Contains(t, err.Error(), "responsable must not be blank")

	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Empty(t, received)
}
