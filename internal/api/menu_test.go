package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

func TestPublicMenu(t *testing.T) {
	env := newTestEnv(t)

	rec := env.owner(t, http.MethodPost, "/menu/categories", map[string]any{"name": "Starters", "position": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	starters := decode[map[string]domain.MenuCategory](t, rec)["category"]

	rec = env.owner(t, http.MethodPost, "/menu/categories", map[string]any{"name": "Empty", "position": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.owner(t, http.MethodPost, "/menu/items", map[string]any{
		"category_id": starters.ID, "name": "Croquetas", "price_cents": 850, "allergens": []string{"gluten", "milk"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	croquetas := decode[map[string]domain.MenuItem](t, rec)["item"]
	assert.Equal(t, "EUR", croquetas.Currency)
	assert.True(t, croquetas.Available)

	rec = env.owner(t, http.MethodPost, "/menu/items", map[string]any{
		"category_id": starters.ID, "name": "Off menu", "price_cents": 100, "available": false,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.owner(t, http.MethodPost, "/menu/items", map[string]any{"name": "Agua", "price_cents": 200, "currency": "eur"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/public/casa-pepe/menu", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.JSONEq(t, `{
		"restaurant": {"name": "Casa Pepe", "slug": "casa-pepe", "timezone": "Europe/Madrid"},
		"categories": [
			{"id": "`+starters.ID+`", "name": "Starters", "items": [
				{"id": "`+croquetas.ID+`", "name": "Croquetas", "price_cents": 850, "currency": "EUR", "allergens": ["gluten", "milk"]}
			]},
			{"name": "Other", "items": [
				{"id": "id-0005", "name": "Agua", "price_cents": 200, "currency": "EUR", "allergens": []}
			]}
		]
	}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/public/casa-pepe/menu", nil, http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	rec = env.do(t, http.MethodGet, "/api/public/casa-pepe/menu", nil, http.Header{"If-None-Match": {`"other", W/` + etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)

	// Editing the menu changes the tag.
	rec = env.owner(t, http.MethodPut, "/menu/items/"+croquetas.ID, map[string]any{
		"category_id": starters.ID, "name": "Croquetas caseras", "price_cents": 900,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/public/casa-pepe/menu", nil, http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))

	rec = env.do(t, http.MethodGet, "/api/public/nope/menu", nil, nil)
	requireError(t, rec, http.StatusNotFound, "not_found")
}

func TestMenuItemValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.owner(t, http.MethodPost, "/menu/items", map[string]any{"name": "Pan", "price_cents": 100, "category_id": "nope"})
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodPost, "/menu/items", map[string]any{"name": "", "price_cents": 100})
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodPost, "/menu/items", map[string]any{"name": "Pan", "price_cents": -1})
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodPut, "/menu/items/missing", map[string]any{"name": "Pan", "price_cents": 1})
	requireError(t, rec, http.StatusNotFound, "not_found")

	rec = env.owner(t, http.MethodDelete, "/menu/items/missing", nil)
	requireError(t, rec, http.StatusNotFound, "not_found")

	rec = env.owner(t, http.MethodPost, "/menu/categories", map[string]any{"name": "  "})
	requireError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestMenuDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.owner(t, http.MethodPost, "/menu/categories", map[string]any{"name": "Mains"})
	require.Equal(t, http.StatusCreated, rec.Code)
	mains := decode[map[string]domain.MenuCategory](t, rec)["category"]

	rec = env.owner(t, http.MethodPost, "/menu/items", map[string]any{"name": "Paella", "price_cents": 1800, "category_id": mains.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	paella := decode[map[string]domain.MenuItem](t, rec)["item"]

	rec = env.owner(t, http.MethodDelete, "/menu/categories/"+mains.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.owner(t, http.MethodGet, "/menu/items", nil)
	items := decode[map[string][]domain.MenuItem](t, rec)["items"]
	require.Len(t, items, 1)
	assert.Empty(t, items[0].CategoryID)

	rec = env.owner(t, http.MethodDelete, "/menu/items/"+paella.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.owner(t, http.MethodGet, "/menu/items", nil)
	assert.Empty(t, decode[map[string][]domain.MenuItem](t, rec)["items"])
}

func TestMenuUpdateCategory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.owner(t, http.MethodPost, "/menu/categories", map[string]any{"name": "Mains"})
	require.Equal(t, http.StatusCreated, rec.Code)
	mains := decode[map[string]domain.MenuCategory](t, rec)["category"]

	rec = env.owner(t, http.MethodPut, "/menu/categories/"+mains.ID, map[string]any{"name": " Tapas ", "position": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]domain.MenuCategory](t, rec)["category"]
	assert.Equal(t, "Tapas", got.Name)
	assert.Equal(t, 2, got.Position)

	rec = env.owner(t, http.MethodGet, "/menu/categories", nil)
	list := decode[map[string][]domain.MenuCategory](t, rec)["categories"]
	require.Len(t, list, 1)
	assert.Equal(t, "Tapas", list[0].Name)

	rec = env.owner(t, http.MethodPut, "/menu/categories/"+mains.ID, map[string]any{"name": "  "})
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodPut, "/menu/categories/missing", map[string]any{"name": "Desserts"})
	requireError(t, rec, http.StatusNotFound, "not_found")
}

func TestStaffAndShifts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.owner(t, http.MethodPost, "/staff", map[string]any{"name": " Luis  Pérez ", "role": "waiter"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	luis := decode[map[string]domain.Staff](t, rec)["staff"]
	assert.Equal(t, "Luis Pérez", luis.Name)
	assert.True(t, luis.Active)

	rec = env.owner(t, http.MethodPost, "/staff", map[string]any{"name": ""})
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodGet, "/staff", nil)
	assert.Len(t, decode[map[string][]domain.Staff](t, rec)["staff"], 1)

	start := testNow.Add(24 * time.Hour)
	shift := func(from, to time.Time) map[string]any {
		return map[string]any{"staff_id": luis.ID, "starts_at": from.Format(time.RFC3339), "ends_at": to.Format(time.RFC3339)}
	}

	rec = env.owner(t, http.MethodPost, "/shifts", shift(start, start.Add(8*time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[map[string]domain.Shift](t, rec)["shift"]

	rec = env.owner(t, http.MethodPost, "/shifts", shift(start.Add(4*time.Hour), start.Add(10*time.Hour)))
	requireError(t, rec, http.StatusConflict, "shift_overlap")

	rec = env.owner(t, http.MethodPost, "/shifts", shift(start.Add(8*time.Hour), start.Add(12*time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code, "touching shifts do not overlap")

	rec = env.owner(t, http.MethodPost, "/shifts", shift(start, start.Add(-time.Hour)))
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodPost, "/shifts", map[string]any{
		"staff_id": "ghost", "starts_at": start.Format(time.RFC3339), "ends_at": start.Add(time.Hour).Format(time.RFC3339),
	})
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodGet, "/shifts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.Shift](t, rec)["shifts"], 2)

	rec = env.owner(t, http.MethodGet, "/shifts?from="+start.Add(9*time.Hour).Format(time.RFC3339), nil)
	assert.Len(t, decode[map[string][]domain.Shift](t, rec)["shifts"], 1)

	rec = env.owner(t, http.MethodGet, "/shifts?from="+start.Format(time.RFC3339)+"&to="+start.Format(time.RFC3339), nil)
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodDelete, "/shifts/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.owner(t, http.MethodDelete, "/shifts/"+first.ID, nil)
	requireError(t, rec, http.StatusNotFound, "not_found")
}

func TestStaffUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.owner(t, http.MethodPost, "/staff", map[string]any{"name": "Ana", "role": "cook", "email": "ana@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	ana := decode[map[string]domain.Staff](t, rec)["staff"]

	rec = env.owner(t, http.MethodPut, "/staff/"+ana.ID, map[string]any{"name": "Ana López", "role": "head cook", "active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]domain.Staff](t, rec)["staff"]
	assert.Equal(t, "Ana López", got.Name)
	assert.Equal(t, "head cook", got.Role)
	assert.Empty(t, got.Email)
	assert.False(t, got.Active)

	rec = env.owner(t, http.MethodPut, "/staff/"+ana.ID, map[string]any{"name": "Ana López"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]domain.Staff](t, rec)["staff"].Active, "omitted active keeps the stored value")

	rec = env.owner(t, http.MethodPut, "/staff/"+ana.ID, map[string]any{"name": ""})
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodPut, "/staff/missing", map[string]any{"name": "Nadie"})
	requireError(t, rec, http.StatusNotFound, "not_found")

	start := testNow.Add(24 * time.Hour)
	rec = env.owner(t, http.MethodPost, "/shifts", map[string]any{
		"staff_id": ana.ID, "starts_at": start.Format(time.RFC3339), "ends_at": start.Add(6 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.owner(t, http.MethodDelete, "/staff/"+ana.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.owner(t, http.MethodGet, "/staff", nil)
	assert.Empty(t, decode[map[string][]domain.Staff](t, rec)["staff"])
	rec = env.owner(t, http.MethodGet, "/shifts", nil)
	assert.Empty(t, decode[map[string][]domain.Shift](t, rec)["shifts"], "shifts go with their staff member")

	rec = env.owner(t, http.MethodDelete, "/staff/"+ana.ID, nil)
	requireError(t, rec, http.StatusNotFound, "not_found")
}

func TestShiftUpdate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.owner(t, http.MethodPost, "/staff", map[string]any{"name": "Luis"})
	require.Equal(t, http.StatusCreated, rec.Code)
	luis := decode[map[string]domain.Staff](t, rec)["staff"]

	start := testNow.Add(24 * time.Hour)
	shift := func(from, to time.Time) map[string]any {
		return map[string]any{"staff_id": luis.ID, "starts_at": from.Format(time.RFC3339), "ends_at": to.Format(time.RFC3339)}
	}

	rec = env.owner(t, http.MethodPost, "/shifts", shift(start, start.Add(6*time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code)
	lunch := decode[map[string]domain.Shift](t, rec)["shift"]

	rec = env.owner(t, http.MethodPost, "/shifts", shift(start.Add(8*time.Hour), start.Add(12*time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Overlapping only its own previous slot is fine.
	body := shift(start.Add(time.Hour), start.Add(7*time.Hour))
	body["notes"] = " terrace "
	rec = env.owner(t, http.MethodPut, "/shifts/"+lunch.ID, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]domain.Shift](t, rec)["shift"]
	assert.Equal(t, lunch.ID, got.ID)
	assert.Equal(t, "terrace", got.Notes)
	assert.True(t, got.StartsAt.Equal(start.Add(time.Hour)))

	rec = env.owner(t, http.MethodPut, "/shifts/"+lunch.ID, shift(start.Add(time.Hour), start.Add(9*time.Hour)))
	requireError(t, rec, http.StatusConflict, "shift_overlap")

	rec = env.owner(t, http.MethodPut, "/shifts/"+lunch.ID, shift(start, start.Add(-time.Hour)))
	requireError(t, rec, http.StatusBadRequest, "validation_error")

	rec = env.owner(t, http.MethodPut, "/shifts/missing", shift(start.Add(20*time.Hour), start.Add(22*time.Hour)))
	requireError(t, rec, http.StatusNotFound, "not_found")

	rec = env.owner(t, http.MethodGet, "/shifts", nil)
	list := decode[map[string][]domain.Shift](t, rec)["shifts"]
	require.Len(t, list, 2)
	assert.True(t, list[0].EndsAt.Equal(start.Add(7*time.Hour)))
}

func TestEtagMatches(t *testing.T) {
	assert.False(t, etagMatches("", `"a"`))
	assert.True(t, etagMatches(`"a"`, `"a"`))
	assert.True(t, etagMatches(`W/"a"`, `"a"`))
	assert.True(t, etagMatches(`"b", "a"`, `"a"`))
	assert.True(t, etagMatches(`*`, `"a"`))
	assert.False(t, etagMatches(`"b"`, `"a"`))
}
