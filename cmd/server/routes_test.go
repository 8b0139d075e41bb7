package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

const testSecret = "supersecret"

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore(nil)
	files := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080")
	svc := band.NewService(store, nil, files)
	require.NoError(t, svc.Slots.EnsureDefaults(t.Context()))

	r := gin.New()
	RegisterRoutes(r, testSecret, svc, files, realtime.NewHub())
	return r
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func signup(t *testing.T, r *gin.Engine, username, instrument string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username":   username,
		"password":   "12345678",
		"instrument": instrument,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, w).Token
}

type idBody struct {
	ID string `json:"id"`
}

func TestSignupLoginAndProfile(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r, "alice", "guitar")

	w := do(r, http.MethodGet, "/api/auth/current_profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/auth/current_profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[map[string]any](t, w)
	assert.Equal(t, "alice", profile["username"])
	assert.NotContains(t, profile, "hashedPassword")

	w = do(r, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "ALICE", "password": "12345678"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "12345678"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, "/api/auth/current_profile", token, gin.H{"instrument": "bass"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bass", decode[map[string]any](t, w)["instrument"])
}

func TestProtectedEndpointsRequireJWT(t *testing.T) {
	r := setupRouter(t)

	for _, path := range []string{"/api/songs", "/api/groups", "/api/slots", "/api/setlists", "/api/media"} {
		w := do(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = do(r, http.MethodGet, path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := do(r, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGroupJoinEnrollsOverHTTP(t *testing.T) {
	r := setupRouter(t)
	owner := signup(t, r, "owner", "vocals")
	drummer := signup(t, r, "drummer", "Batterie")

	w := do(r, http.MethodPost, "/api/groups", owner, gin.H{"name": "Les Rockeurs", "style": "rock"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	group := decode[idBody](t, w)

	for _, title := range []string{"Song A", "Song B"} {
		w = do(r, http.MethodPost, "/api/songs", owner, gin.H{"title": title, "ownerGroupId": group.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/groups/"+group.ID+"/join", drummer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		SlotID   string   `json:"slotId"`
		Enrolled []idBody `json:"enrolled"`
	}](t, w)
	assert.Equal(t, "drums", res.SlotID)
	assert.Len(t, res.Enrolled, 2)

	w = do(r, http.MethodGet, "/api/songs?group="+group.ID, drummer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idBody](t, w), 2)
}

func TestDuplicateAssignmentIsConflict(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r, "alice", "guitar")

	w := do(r, http.MethodPost, "/api/songs", token, gin.H{"title": "Solo"})
	require.Equal(t, http.StatusCreated, w.Code)
	song := decode[struct {
		Song    idBody `json:"song"`
		Message string `json:"message"`
	}](t, w)
	assert.Equal(t, band.MsgEnrichmentSkipped, song.Message)

	path := fmt.Sprintf("/api/songs/%s/slots/guitar/join", song.Song.ID)
	w = do(r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, fmt.Sprintf("/api/songs/%s/slots/nope/join", song.Song.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDestructiveDeletesRequireConfirm(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r, "alice", "")

	w := do(r, http.MethodPost, "/api/songs", token, gin.H{"title": "Gone Soon"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[struct {
		Song idBody `json:"song"`
	}](t, w).Song.ID

	w = do(r, http.MethodDelete, "/api/songs/"+id, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	other := signup(t, r, "mallory", "")
	w = do(r, http.MethodDelete, "/api/songs/"+id+"?confirm=true", other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodDelete, "/api/songs/"+id+"?confirm=true", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/songs/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/api/slots/drums?confirm=true", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func upload(r *gin.Engine, path, token, field, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, _ := mw.CreatePart(h)
	_, _ = part.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadAudio(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r, "alice", "")

	w := do(r, http.MethodPost, "/api/songs", token, gin.H{"title": "With Audio"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[struct {
		Song idBody `json:"song"`
	}](t, w).Song.ID

	w = upload(r, "/api/upload/audio?songId="+id, token, "audioFile", "take.txt", "text/plain", []byte("nope"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")

	w = upload(r, "/api/upload/audio?songId="+id, token, "audioFile", "Take 1.MP3", "audio/mpeg", []byte("ID3 fake mp3"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
		Song     struct {
			AudioURL string `json:"audioUrl"`
		} `json:"song"`
	}](t, w)
	assert.Equal(t, id+".mp3", res.Filename)
	assert.Equal(t, res.URL, res.Song.AudioURL)

	w = do(r, http.MethodGet, "/api/audio/"+res.Filename, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ID3 fake mp3", w.Body.String())
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))

	w = do(r, http.MethodDelete, "/api/audio/"+res.Filename, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/audio/"+res.Filename, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadMediaRejectsAudio(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r, "alice", "")

	w := upload(r, "/api/upload/media", token, "mediaFile", "song.mp3", "audio/mpeg", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(r, "/api/upload/media", token, "mediaFile", "poster.png", "image/png", []byte("png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/media", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
}

func TestSetlistOverHTTP(t *testing.T) {
	r := setupRouter(t)
	token := signup(t, r, "alice", "")

	var songs []string
	for _, s := range []struct{ title, duration string }{{"One", "03:00"}, {"Two", "01:45"}} {
		w := do(r, http.MethodPost, "/api/songs", token, gin.H{"title": s.title, "duration": s.duration})
		require.Equal(t, http.StatusCreated, w.Code)
		songs = append(songs, decode[struct {
			Song idBody `json:"song"`
		}](t, w).Song.ID)
	}

	w := do(r, http.MethodPost, "/api/setlists", token, gin.H{"name": "Gig"})
	require.Equal(t, http.StatusCreated, w.Code)
	sl := decode[idBody](t, w)

	for _, id := range songs {
		w = do(r, http.MethodPost, "/api/setlists/"+sl.ID+"/songs", token, gin.H{"songId": id})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = do(r, http.MethodPut, "/api/setlists/"+sl.ID+"/songs", token, gin.H{"songIds": []string{songs[1], songs[0]}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/setlists/"+sl.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[struct {
		Duration string `json:"duration"`
		Songs    []struct {
			Song idBody `json:"song"`
		} `json:"songs"`
	}](t, w)
	assert.Equal(t, "04:45", view.Duration)
	require.Len(t, view.Songs, 2)
	assert.Equal(t, songs[1], view.Songs[0].Song.ID)

	w = do(r, http.MethodPut, "/api/setlists/"+sl.ID+"/songs", token, gin.H{"songIds": []string{songs[0]}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
