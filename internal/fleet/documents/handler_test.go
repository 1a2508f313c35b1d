package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/shared"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func (s *fakeStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	if s.failPut {
		return "", errors.New("bucket unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = body
	return "https://cdn.fleet.test/" + key, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type memoryRepository struct {
	org       uuid.UUID
	vehicles  map[uuid.UUID]bool
	docs      map[uuid.UUID]Document
	failWrite bool
}

func (m *memoryRepository) ListByVehicle(_ context.Context, vehicleID uuid.UUID) ([]Document, error) {
	var out []Document
	for _, d := range m.docs {
		if d.VehicleID == vehicleID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryRepository) Get(_ context.Context, organizationID, id uuid.UUID) (*Document, error) {
	d, ok := m.docs[id]
	if !ok || organizationID != m.org {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *memoryRepository) Create(_ context.Context, d Document) error {
	if m.failWrite {
		return errors.New("insert failed")
	}
	m.docs[d.ID] = d
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memoryRepository) VehicleInOrganization(_ context.Context, organizationID, vehicleID uuid.UUID) (bool, error) {
	return organizationID == m.org && m.vehicles[vehicleID], nil
}

type env struct {
	router chi.Router
	repo   *memoryRepository
	store  *fakeStore
	owner  *shared.Principal
	admin  *shared.Principal
	mine   uuid.UUID
	theirs uuid.UUID
}

func newEnv(t *testing.T, maxBytes int64) *env {
	t.Helper()
	policy, err := rbac.DefaultPolicy()
	require.NoError(t, err)

	org := uuid.New()
	e := &env{
		mine:   uuid.New(),
		theirs: uuid.New(),
		store:  &fakeStore{objects: make(map[string][]byte)},
		owner:  &shared.Principal{UserID: uuid.New(), OrganizationID: org, Role: "VEHICLE_OWNER"},
		admin:  &shared.Principal{UserID: uuid.New(), OrganizationID: org, Role: "ADMIN"},
	}
	e.repo = &memoryRepository{org: org, vehicles: map[uuid.UUID]bool{e.mine: true, e.theirs: true}, docs: make(map[uuid.UUID]Document)}

	ownership := rbac.OwnershipFunc(func(_ context.Context, p *shared.Principal, vehicleID uuid.UUID) (bool, error) {
		return p.UserID == e.owner.UserID && vehicleID == e.mine, nil
	})
	svc := NewService(e.repo, e.store, ownership, nil, nil)
	e.router = chi.NewRouter()
	e.router.Route("/documents", NewHandler(nil, svc, rbac.Middleware{Policy: policy}, maxBytes).MountRoutes)
	return e
}

func (e *env) upload(t *testing.T, p *shared.Principal, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *env) get(p *shared.Principal, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestUploadStoresObjectAndRecord(t *testing.T) {
	e := newEnv(t, 0)

	rr := e.upload(t, e.owner, map[string]string{
		"vehicle_id":  e.mine.String(),
		"type":        "insurance",
		"expiry_date": "2025-01-31",
	}, "polis asuransi.pdf", []byte("%PDF-1.4 policy"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var doc Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "INSURANCE", doc.Type)
	assert.Equal(t, "polis asuransi.pdf", doc.Name)
	require.NotNil(t, doc.ExpiryDate)
	assert.Equal(t, "2025-01-31", doc.ExpiryDate.Format("2006-01-02"))
	assert.True(t, strings.HasPrefix(doc.DocumentURL, "https://cdn.fleet.test/vehicles/"+e.mine.String()+"/"))
	assert.True(t, strings.HasSuffix(doc.DocumentURL, "-polis_asuransi.pdf"))
	assert.Len(t, e.store.objects, 1)
	assert.Len(t, e.repo.docs, 1)
}

func TestUploadOwnershipAndRoles(t *testing.T) {
	e := newEnv(t, 0)
	fields := map[string]string{"vehicle_id": e.theirs.String(), "type": "STNK"}

	assert.Equal(t, http.StatusForbidden, e.upload(t, e.owner, fields, "stnk.jpg", []byte("img")).Code)
	assert.Equal(t, http.StatusCreated, e.upload(t, e.admin, fields, "stnk.jpg", []byte("img")).Code)

	manager := &shared.Principal{UserID: uuid.New(), OrganizationID: e.owner.OrganizationID, Role: "FLEET_MANAGER"}
	assert.Equal(t, http.StatusForbidden, e.upload(t, manager, fields, "stnk.jpg", []byte("img")).Code)

	fields["vehicle_id"] = uuid.NewString()
	assert.Equal(t, http.StatusNotFound, e.upload(t, e.admin, fields, "stnk.jpg", []byte("img")).Code)
	assert.Len(t, e.store.objects, 1)
}

func TestUploadRejectsBadInput(t *testing.T) {
	e := newEnv(t, 1024)
	fields := map[string]string{"vehicle_id": e.mine.String(), "type": "STNK"}

	assert.Equal(t, http.StatusBadRequest, e.upload(t, e.admin, fields, "", nil).Code, "missing file")
	assert.Equal(t, http.StatusRequestEntityTooLarge, e.upload(t, e.admin, fields, "big.pdf", bytes.Repeat([]byte("x"), 4096)).Code)
	assert.Equal(t, http.StatusBadRequest, e.upload(t, e.admin, map[string]string{"vehicle_id": "nope", "type": "STNK"}, "a.pdf", []byte("x")).Code)
	assert.Equal(t, http.StatusBadRequest, e.upload(t, e.admin, map[string]string{"vehicle_id": e.mine.String()}, "a.pdf", []byte("x")).Code, "missing type")
	assert.Equal(t, http.StatusBadRequest, e.upload(t, e.admin, map[string]string{"vehicle_id": e.mine.String(), "type": "STNK", "expiry_date": "31/01/2025"}, "a.pdf", []byte("x")).Code)
	assert.Empty(t, e.store.objects)
}

func TestUploadCleansUpObjectWhenRecordFails(t *testing.T) {
	e := newEnv(t, 0)
	e.repo.failWrite = true

	rr := e.upload(t, e.admin, map[string]string{"vehicle_id": e.mine.String(), "type": "STNK"}, "a.pdf", []byte("x"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, e.store.objects)
}

func TestListAndDeleteByVehicle(t *testing.T) {
	e := newEnv(t, 0)
	require.Equal(t, http.StatusCreated, e.upload(t, e.admin, map[string]string{"vehicle_id": e.mine.String(), "type": "STNK"}, "a.pdf", []byte("x")).Code)
	require.Equal(t, http.StatusCreated, e.upload(t, e.admin, map[string]string{"vehicle_id": e.theirs.String(), "type": "STNK"}, "b.pdf", []byte("y")).Code)

	rr := e.get(e.owner, http.MethodGet, "/documents/vehicle/"+e.mine.String())
	require.Equal(t, http.StatusOK, rr.Code)
	var docs []Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &docs))
	require.Len(t, docs, 1)

	assert.Equal(t, http.StatusForbidden, e.get(e.owner, http.MethodGet, "/documents/vehicle/"+e.theirs.String()).Code)

	driver := &shared.Principal{UserID: uuid.New(), OrganizationID: e.owner.OrganizationID, Role: "DRIVER"}
	assert.Equal(t, http.StatusForbidden, e.get(driver, http.MethodGet, "/documents/vehicle/"+e.mine.String()).Code)
	assert.Equal(t, http.StatusForbidden, e.get(driver, http.MethodDelete, "/documents/"+docs[0].ID.String()).Code)

	assert.Equal(t, http.StatusNoContent, e.get(e.owner, http.MethodDelete, "/documents/"+docs[0].ID.String()).Code)
	assert.Len(t, e.store.objects, 1)
	assert.Equal(t, http.StatusNotFound, e.get(e.owner, http.MethodDelete, "/documents/"+docs[0].ID.String()).Code)
}
