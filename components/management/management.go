// components/management/management.go
//
// `management` API handler: generic CRUD over the tables exposed in the
// dashboard registry.
//
// Every action requires an Admin session and the X-CSRF-Token header, and
// names its table with ?table=.  Row ids come from ?id=.  add and edit read
// a JSON object body (or form fields when the body is not JSON), validate
// it against the table's rules, and populate the entity from it.
//
// delete runs the table's deletion hooks and the row delete in one
// transaction; any failure rolls both back.
//
//------------------------------------------------------------------------------

package management

import (
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/yanizio/peneus/internal/api"
	"github.com/yanizio/peneus/internal/apperr"
	"github.com/yanizio/peneus/internal/dashboard"
	"github.com/yanizio/peneus/internal/database"
	"github.com/yanizio/peneus/internal/entity"
	"github.com/yanizio/peneus/internal/guard"
	"github.com/yanizio/peneus/internal/role"
)

// Name is the handler key used in ?handler=.
const Name = "management"

const (
	defaultLimit = 20
	maxLimit     = 100
	maxBody      = 1 << 20
)

// Deps wires the handler.
type Deps struct {
	DB       database.Database
	Tables   *dashboard.Registry
	Sessions guard.Sessions
	CSRF     guard.Verifier
	Log      *zap.SugaredLogger
}

// Handler serves the management actions.
type Handler struct {
	Deps
	store *entity.Store
}

// Register adds the management handler to reg.
func Register(reg *api.Registry, d Deps) error {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	store := entity.NewStore(d.DB, d.Log)
	return reg.Register(Name, func() api.Handler { return &Handler{Deps: d, store: store} })
}

func (h *Handler) CreateAction(name string) *api.Action {
	var run api.RunFunc
	switch name {
	case "describe":
		run = h.describe
	case "list":
		run = h.list
	case "get":
		run = h.get
	case "add":
		run = h.add
	case "edit":
		run = h.edit
	case "delete":
		run = h.remove
	default:
		return nil
	}
	return api.NewAction(run,
		guard.SessionGuard(h.Sessions, role.Admin),
		guard.HeaderTokenGuard(h.CSRF))
}

/*──────────────────────────── actions ─────────────────────────────────────*/

func (h *Handler) describe(r *http.Request) (any, error) {
	table, f, err := h.table(r)
	if err != nil {
		return nil, err
	}
	e := f()
	_, view := e.(entity.View)
	return map[string]any{
		"table":    table,
		"readOnly": view,
		"columns":  entity.Metadata(e),
		"rules":    h.Tables.RulesFor(table),
	}, nil
}

func (h *Handler) list(r *http.Request) (any, error) {
	_, f, err := h.table(r)
	if err != nil {
		return nil, err
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		return nil, err
	}
	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		return nil, apperr.InvalidArgument("Limit must be between 1 and %d.", maxLimit)
	}
	if page > math.MaxInt/limit {
		return nil, apperr.InvalidArgument("Page out of range: %d", page)
	}

	ctx := r.Context()
	total := h.store.Tally(ctx, f, entity.Query{})
	rows := h.store.List(ctx, f, entity.Query{
		OrderBy: "id",
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})

	data := make([]json.RawMessage, 0, len(rows))
	for _, e := range rows {
		b, err := encode(e)
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}
	return map[string]any{"total": total, "data": data}, nil
}

func (h *Handler) get(r *http.Request) (any, error) {
	table, f, err := h.table(r)
	if err != nil {
		return nil, err
	}
	e, err := h.lookup(r, table, f)
	if err != nil {
		return nil, err
	}
	return raw(e)
}

func (h *Handler) add(r *http.Request) (any, error) {
	table, f, err := h.writableTable(r)
	if err != nil {
		return nil, err
	}
	data, err := readData(r)
	if err != nil {
		return nil, err
	}
	delete(data, "id")

	if err := dashboard.Validate(h.Tables.RulesFor(table), data); err != nil {
		return nil, err
	}
	e, err := entity.New(f, data)
	if err != nil {
		return nil, err
	}
	if !h.store.Save(r.Context(), e) {
		return nil, apperr.Internal("Could not save %s.", table)
	}
	h.Log.Infow("management add", "table", table, "id", entity.IDOf(e))

	b, err := encode(e)
	if err != nil {
		return nil, err
	}
	return api.NewResponse().
		SetStatus(http.StatusCreated).
		SetHeader("Content-Type", "application/json").
		SetBody(b), nil
}

func (h *Handler) edit(r *http.Request) (any, error) {
	table, f, err := h.writableTable(r)
	if err != nil {
		return nil, err
	}
	e, err := h.lookup(r, table, f)
	if err != nil {
		return nil, err
	}
	data, err := readData(r)
	if err != nil {
		return nil, err
	}
	delete(data, "id")

	// Rules apply to the row as it will be stored, not just the changes.
	merged, err := current(e)
	if err != nil {
		return nil, err
	}
	for k, v := range data {
		merged[k] = v
	}
	if err := dashboard.Validate(h.Tables.RulesFor(table), merged); err != nil {
		return nil, err
	}
	if err := entity.Populate(e, data); err != nil {
		return nil, err
	}
	if !h.store.Save(r.Context(), e) {
		return nil, apperr.Internal("Could not save %s.", table)
	}
	h.Log.Infow("management edit", "table", table, "id", entity.IDOf(e))
	return raw(e)
}

func (h *Handler) remove(r *http.Request) (any, error) {
	table, f, err := h.writableTable(r)
	if err != nil {
		return nil, err
	}
	e, err := h.lookup(r, table, f)
	if err != nil {
		return nil, err
	}
	id := entity.IDOf(e)
	hook := h.Tables.DeletionHookFor(table)

	err = h.DB.Transaction(r.Context(), func(tx database.Executor) error {
		st := h.store.WithExecutor(tx)
		if hook != nil {
			if err := hook(r.Context(), st, e); err != nil {
				return err
			}
		}
		if !st.Delete(r.Context(), e) {
			return apperr.Internal("Could not delete %s #%d.", table, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.Log.Infow("management delete", "table", table, "id", id)
	return nil, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func (h *Handler) table(r *http.Request) (string, entity.Factory, error) {
	table := strings.TrimSpace(r.URL.Query().Get("table"))
	if table == "" {
		return "", nil, apperr.InvalidArgument("Table not specified.")
	}
	f := h.Tables.EntityFor(table)
	if f == nil {
		return "", nil, apperr.NotFound("Unknown table: %s", table)
	}
	return table, f, nil
}

func (h *Handler) writableTable(r *http.Request) (string, entity.Factory, error) {
	table, f, err := h.table(r)
	if err != nil {
		return "", nil, err
	}
	if _, view := f().(entity.View); view {
		return "", nil, apperr.Forbidden("Table is read-only: %s", table)
	}
	return table, f, nil
}

func (h *Handler) lookup(r *http.Request, table string, f entity.Factory) (entity.Entity, error) {
	id, err := intParam(r, "id", 0)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, apperr.InvalidArgument("Id not specified.")
	}
	e := h.store.Lookup(r.Context(), f, int64(id))
	if e == nil {
		return nil, apperr.NotFound("Not found: %s #%d", table, id)
	}
	return e, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.InvalidArgument("Invalid %s: %s", name, s)
	}
	return n, nil
}

// readData decodes a JSON object body, or falls back to form fields.
func readData(r *http.Request) (map[string]any, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		if err != nil {
			return nil, apperr.InvalidInput("Could not read request body.")
		}
		if len(body) > maxBody {
			return nil, apperr.New(apperr.KindInvalidInput, http.StatusRequestEntityTooLarge, "Request body too large.")
		}
		data := map[string]any{}
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, apperr.InvalidInput("Request body must be a JSON object.")
		}
		return data, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, apperr.InvalidInput("Could not parse form.")
	}
	data := make(map[string]any, len(r.PostForm))
	for k := range r.PostForm {
		data[k] = r.PostForm.Get(k)
	}
	return data, nil
}

// encode prefers an entity's own MarshalJSON, which may hide columns.
func encode(e entity.Entity) (json.RawMessage, error) {
	if m, ok := e.(json.Marshaler); ok {
		return m.MarshalJSON()
	}
	return entity.Marshal(e)
}

func raw(e entity.Entity) (any, error) {
	b, err := encode(e)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// current returns e's stored values keyed by column.
func current(e entity.Entity) (map[string]any, error) {
	b, err := entity.Marshal(e)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
