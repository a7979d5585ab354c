package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/urbanharvest/vending-api/internal/cache"
	"github.com/urbanharvest/vending-api/internal/database"
)

// CatalogStore defines the catalog read queries. Satisfied by *database.Queries.
type CatalogStore interface {
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	ListAddons(ctx context.Context) ([]database.Addon, error)
	GetAddon(ctx context.Context, id uuid.UUID) (database.Addon, error)
	ListPresets(ctx context.Context, category database.NullPresetCategory) ([]database.Preset, error)
	GetPreset(ctx context.Context, id uuid.UUID) (database.Preset, error)
	ListPresetIngredients(ctx context.Context, presetID uuid.UUID) ([]database.ListPresetIngredientsRow, error)
}

// CatalogHandler serves ingredients, addons and presets through the cache.
type CatalogHandler struct {
	store  CatalogStore
	cache  *cache.Cache
	logger *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler. A nil cache reads straight
// from the store.
func NewCatalogHandler(store CatalogStore, c *cache.Cache, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, cache: c, logger: logger}
}

// RegisterRoutes registers the catalog endpoints at the router root.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ingredients", h.ListIngredients)
	r.Get("/ingredients/{id}", h.GetIngredient)
	r.Get("/addons", h.ListAddons)
	r.Get("/addons/{id}", h.GetAddon)
	r.Get("/presets", h.ListPresets)
	r.Get("/presets/{id}", h.GetPreset)
}

type ingredientResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Emoji           *string   `json:"emoji"`
	Image           *string   `json:"image"`
	MinQtyG         int32     `json:"min_qty_g"`
	MaxPercentLimit int32     `json:"max_percent_limit"`
	CaloriesPerG    string    `json:"calories_per_g"`
	PricePerGram    string    `json:"price_per_gram"`
}

type addonResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Icon     *string   `json:"icon"`
	Price    string    `json:"price"`
	Calories int32     `json:"calories"`
}

type presetIngredientResponse struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Name         string    `json:"name"`
	Emoji        *string   `json:"emoji"`
	Percent      int32     `json:"percent"`
}

type presetResponse struct {
	ID          uuid.UUID                  `json:"id"`
	Name        string                     `json:"name"`
	Category    string                     `json:"category"`
	Price       string                     `json:"price"`
	Calories    int32                      `json:"calories"`
	Description *string                    `json:"description"`
	Image       *string                    `json:"image"`
	Ingredients []presetIngredientResponse `json:"ingredients,omitempty"`
}

// ListIngredients handles GET /ingredients.
func (h *CatalogHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	resp, err := cache.GetOrLoad(r.Context(), h.cache, cache.Key("ingredients", "all"),
		func(ctx context.Context) ([]ingredientResponse, error) {
			rows, err := h.store.ListIngredients(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]ingredientResponse, len(rows))
			for i, ing := range rows {
				out[i] = toIngredientResponse(ing)
			}
			return out, nil
		})
	if err != nil {
		internalError(w, h.logger, "list ingredients", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetIngredient handles GET /ingredients/{id}.
func (h *CatalogHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid ingredient ID")
		return
	}
	resp, err := cache.GetOrLoad(r.Context(), h.cache, cache.Key("ingredient", id.String()),
		func(ctx context.Context) (ingredientResponse, error) {
			ing, err := h.store.GetIngredient(ctx, id)
			if err != nil {
				return ingredientResponse{}, err
			}
			return toIngredientResponse(ing), nil
		})
	if err != nil {
		h.writeLoadError(w, "ingredient", id, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAddons handles GET /addons.
func (h *CatalogHandler) ListAddons(w http.ResponseWriter, r *http.Request) {
	resp, err := cache.GetOrLoad(r.Context(), h.cache, cache.Key("addons", "all"),
		func(ctx context.Context) ([]addonResponse, error) {
			rows, err := h.store.ListAddons(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]addonResponse, len(rows))
			for i, a := range rows {
				out[i] = toAddonResponse(a)
			}
			return out, nil
		})
	if err != nil {
		internalError(w, h.logger, "list addons", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAddon handles GET /addons/{id}.
func (h *CatalogHandler) GetAddon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid addon ID")
		return
	}
	resp, err := cache.GetOrLoad(r.Context(), h.cache, cache.Key("addon", id.String()),
		func(ctx context.Context) (addonResponse, error) {
			a, err := h.store.GetAddon(ctx, id)
			if err != nil {
				return addonResponse{}, err
			}
			return toAddonResponse(a), nil
		})
	if err != nil {
		h.writeLoadError(w, "addon", id, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPresets handles GET /presets?category=smoothie|salad.
func (h *CatalogHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	var category database.NullPresetCategory
	key := "all"
	if s := r.URL.Query().Get("category"); s != "" {
		switch database.PresetCategory(s) {
		case database.PresetCategorySmoothie, database.PresetCategorySalad:
		default:
			badRequest(w, "category must be smoothie or salad")
			return
		}
		category = database.NullPresetCategory{PresetCategory: database.PresetCategory(s), Valid: true}
		key = s
	}

	resp, err := cache.GetOrLoad(r.Context(), h.cache, cache.Key("presets", key),
		func(ctx context.Context) ([]presetResponse, error) {
			rows, err := h.store.ListPresets(ctx, category)
			if err != nil {
				return nil, err
			}
			out := make([]presetResponse, len(rows))
			for i, p := range rows {
				out[i] = toPresetResponse(p)
			}
			return out, nil
		})
	if err != nil {
		internalError(w, h.logger, "list presets", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPreset handles GET /presets/{id}, including the preset's ingredient mix.
func (h *CatalogHandler) GetPreset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid preset ID")
		return
	}
	resp, err := cache.GetOrLoad(r.Context(), h.cache, cache.Key("preset", id.String()),
		func(ctx context.Context) (presetResponse, error) {
			p, err := h.store.GetPreset(ctx, id)
			if err != nil {
				return presetResponse{}, err
			}
			ings, err := h.store.ListPresetIngredients(ctx, id)
			if err != nil {
				return presetResponse{}, err
			}
			out := toPresetResponse(p)
			out.Ingredients = make([]presetIngredientResponse, len(ings))
			for i, pi := range ings {
				out.Ingredients[i] = presetIngredientResponse{
					IngredientID: pi.IngredientID,
					Name:         pi.IngredientName,
					Emoji:        textPtr(pi.IngredientEmoji),
					Percent:      pi.Percent,
				}
			}
			return out, nil
		})
	if err != nil {
		h.writeLoadError(w, "preset", id, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) writeLoadError(w http.ResponseWriter, kind string, id uuid.UUID, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, codeNotFound, kind+" not found: "+id.String())
		return
	}
	internalError(w, h.logger, "get "+kind, err)
}

func toIngredientResponse(ing database.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:              ing.ID,
		Name:            ing.Name,
		Emoji:           textPtr(ing.Emoji),
		Image:           textPtr(ing.Image),
		MinQtyG:         ing.MinQtyG,
		MaxPercentLimit: ing.MaxPercentLimit,
		CaloriesPerG:    numericExact(ing.CaloriesPerG),
		PricePerGram:    numericExact(ing.PricePerGram),
	}
}

func toAddonResponse(a database.Addon) addonResponse {
	return addonResponse{
		ID:       a.ID,
		Name:     a.Name,
		Icon:     textPtr(a.Icon),
		Price:    numericToString(a.Price),
		Calories: a.Calories,
	}
}

func toPresetResponse(p database.Preset) presetResponse {
	return presetResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Price:       numericToString(p.Price),
		Calories:    p.Calories,
		Description: textPtr(p.Description),
		Image:       textPtr(p.Image),
	}
}
