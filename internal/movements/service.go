package movements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sitestock/sitestock-backend/pkg/config"
	"github.com/sitestock/sitestock-backend/pkg/db/models"
	"github.com/sitestock/sitestock-backend/pkg/enums"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
	"github.com/sitestock/sitestock-backend/pkg/metrics"
	"github.com/sitestock/sitestock-backend/pkg/types"
)

type movementRepository interface {
	Insert(ctx context.Context, dto CreateMovementDTO) (*models.Movement, error)
	ListRecent(ctx context.Context, limit int) ([]models.Movement, error)
	ListAll(ctx context.Context) ([]models.Movement, error)
	Probe(ctx context.Context) bool
}

type inventoryRepository interface {
	FindAll(ctx context.Context) ([]models.InventoryItem, error)
	UpdateQuantity(ctx context.Context, product enums.Product, quantity int) error
	Probe(ctx context.Context) bool
}

type areaRepository interface {
	FindAll(ctx context.Context) ([]models.Area, error)
	FindByID(ctx context.Context, id int64) (*models.Area, error)
	Default(ctx context.Context) (*models.Area, error)
	Probe(ctx context.Context) bool
}

type entryGuard interface {
	Authorize(ctx context.Context, clientID, passcode string) error
}

// Service exposes the movement workflow.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*MovementDTO, error)
	List(ctx context.Context, limit int) ([]MovementDTO, error)
	ListAll(ctx context.Context) ([]models.Movement, error)
	Snapshot(ctx context.Context) (*StateDTO, error)
	Ready(ctx context.Context) error
}

type service struct {
	repo      movementRepository
	inventory inventoryRepository
	areas     areaRepository
	guard     entryGuard
	metrics   *metrics.MovementMetrics
	logg      *logger.Logger
	cfg       config.MovementsConfig
}

// NewService builds the movement service with the provided collaborators.
func NewService(
	repo movementRepository,
	inventoryRepo inventoryRepository,
	areaRepo areaRepository,
	guard entryGuard,
	movementMetrics *metrics.MovementMetrics,
	logg *logger.Logger,
	cfg config.MovementsConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if areaRepo == nil {
		return nil, fmt.Errorf("area repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("entry guard required")
	}
	if cfg.MaxPerOperation <= 0 {
		cfg.MaxPerOperation = 50
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 50
	}
	return &service{
		repo:      repo,
		inventory: inventoryRepo,
		areas:     areaRepo,
		guard:     guard,
		metrics:   movementMetrics,
		logg:      logg,
		cfg:       cfg,
	}, nil
}

// SubmitInput is a movement request before validation.
type SubmitInput struct {
	Type           string
	AreaID         *int64
	IceQuantity    int
	BottleQuantity int
	ImageURL       string
	Notes          *string
	Passcode       string
	ClientID       string
	Device         types.DeviceInfo
}

// MovementDTO is the wire shape for a recorded movement.
type MovementDTO struct {
	ID             string           `json:"id"`
	Type           string           `json:"type"`
	AreaID         int64            `json:"area_id"`
	AreaName       string           `json:"area_name"`
	IceQuantity    int              `json:"ice_quantity"`
	BottleQuantity int              `json:"bottle_quantity"`
	ImageURL       string           `json:"image_url"`
	Notes          *string          `json:"notes,omitempty"`
	DeviceInfo     types.DeviceInfo `json:"device_info"`
	CreatedAt      string           `json:"created_at"`
}

// InventoryDTO is the wire shape for one stock counter.
type InventoryDTO struct {
	Product   string `json:"product"`
	Label     string `json:"label"`
	Quantity  int    `json:"quantity"`
	MinStock  int    `json:"min_stock"`
	LowStock  bool   `json:"low_stock"`
	UpdatedAt string `json:"updated_at"`
}

// AreaInfo is the compact area shape embedded in the snapshot.
type AreaInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TodayCounts sums today's submissions by direction.
type TodayCounts struct {
	Entries int `json:"entries"`
	Exits   int `json:"exits"`
}

// StateDTO is the full application snapshot the UI renders from.
type StateDTO struct {
	Inventory []InventoryDTO `json:"inventory"`
	Areas     []AreaInfo     `json:"areas"`
	Recent    []MovementDTO  `json:"recent_movements"`
	Alerts    []string       `json:"alerts"`
	Today     TodayCounts    `json:"today"`
}

func movementToDTO(m *models.Movement) MovementDTO {
	return MovementDTO{
		ID:             m.ID.String(),
		Type:           string(m.Type),
		AreaID:         m.AreaID,
		AreaName:       m.AreaName(),
		IceQuantity:    m.IceQuantity,
		BottleQuantity: m.BottleQuantity,
		ImageURL:       m.ImageURL,
		Notes:          m.Notes,
		DeviceInfo:     m.DeviceInfo,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Submit runs the full workflow: validation, passcode authorization for
// entries, movement insert, and per-product quantity updates. The insert
// and the quantity writes are separate statements with no surrounding
// transaction, so a failure in between leaves a movement row whose
// inventory effect must be reconciled manually.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*MovementDTO, error) {
	started := time.Now()

	movementType, err := enums.ParseMovementType(input.Type)
	if err != nil {
		s.reject(input.Type)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Por favor completa todos los campos obligatorios").
			WithDetails([]string{"Selecciona el tipo de movimiento"})
	}

	if movementType == enums.MovementOut && input.AreaID == nil {
		s.reject(input.Type)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Para las salidas debes seleccionar un área").
			WithDetails([]string{"Selecciona el área de destino"})
	}

	if input.ImageURL == "" {
		s.reject(input.Type)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "La fotografía del producto es obligatoria").
			WithDetails([]string{"Sube una imagen del producto antes de continuar"})
	}

	if input.IceQuantity < 0 || input.BottleQuantity < 0 {
		s.reject(input.Type)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Las cantidades no pueden ser negativas")
	}

	if input.IceQuantity == 0 && input.BottleQuantity == 0 {
		s.reject(input.Type)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Debes ingresar al menos una cantidad").
			WithDetails([]string{
				"Ingresa cantidad de hielo",
				"Ingresa cantidad de botellones",
				"O ambos productos",
			})
	}

	maxQty := s.cfg.MaxPerOperation
	if input.IceQuantity > maxQty {
		s.reject(input.Type)
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("No puedes ingresar más de %d bolsas de hielo en una sola operación", maxQty)).
			WithDetails([]string{
				fmt.Sprintf("Cantidad solicitada: %d bolsas", input.IceQuantity),
				fmt.Sprintf("Máximo permitido: %d bolsas por operación", maxQty),
			})
	}
	if input.BottleQuantity > maxQty {
		s.reject(input.Type)
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("No puedes ingresar más de %d botellones en una sola operación", maxQty)).
			WithDetails([]string{
				fmt.Sprintf("Cantidad solicitada: %d botellones", input.BottleQuantity),
				fmt.Sprintf("Máximo permitido: %d botellones por operación", maxQty),
			})
	}

	items, err := s.loadItems(ctx)
	if err != nil {
		return nil, err
	}

	// Sufficiency is checked against the snapshot just loaded, not
	// atomically against the table. Concurrent exits can both pass
	// this check; the clamp below keeps stored quantities at zero or
	// above either way.
	if movementType == enums.MovementOut {
		var shortages []string
		if input.IceQuantity > 0 && items[enums.ProductIce].Quantity < input.IceQuantity {
			shortages = append(shortages, fmt.Sprintf(
				"Hielo: Solo hay %d bolsas disponibles, solicitas %d",
				items[enums.ProductIce].Quantity, input.IceQuantity))
		}
		if input.BottleQuantity > 0 && items[enums.ProductBottle].Quantity < input.BottleQuantity {
			shortages = append(shortages, fmt.Sprintf(
				"Botellones: Solo hay %d unidades disponibles, solicitas %d",
				items[enums.ProductBottle].Quantity, input.BottleQuantity))
		}
		if len(shortages) > 0 {
			s.reject(input.Type)
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "No hay suficiente inventario para completar esta salida").
				WithDetails(shortages)
		}
	}

	if movementType == enums.MovementIn {
		if err := s.guard.Authorize(ctx, input.ClientID, input.Passcode); err != nil {
			s.reject(input.Type)
			return nil, err
		}
	}

	area, err := s.resolveArea(ctx, movementType, input.AreaID)
	if err != nil {
		s.reject(input.Type)
		return nil, err
	}

	movement, err := s.repo.Insert(ctx, CreateMovementDTO{
		Type:           movementType,
		AreaID:         area.ID,
		IceQuantity:    input.IceQuantity,
		BottleQuantity: input.BottleQuantity,
		ImageURL:       input.ImageURL,
		Notes:          input.Notes,
		DeviceInfo:     input.Device,
	})
	if err != nil {
		s.reject(input.Type)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert movement")
	}
	movement.Area = area

	for _, product := range enums.Products() {
		qty := input.IceQuantity
		if product == enums.ProductBottle {
			qty = input.BottleQuantity
		}
		if qty == 0 {
			continue
		}
		item := items[product]
		newQuantity := item.Quantity + qty
		if movementType == enums.MovementOut {
			newQuantity = item.Quantity - qty
			if newQuantity < 0 {
				newQuantity = 0
			}
		}
		if err := s.inventory.UpdateQuantity(ctx, product, newQuantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory")
		}
		s.metrics.SetStockLevel(string(product), newQuantity)
		s.metrics.SetLowStock(string(product), newQuantity <= item.MinStock)
	}

	if s.logg != nil {
		logCtx := s.logg.WithMovementID(ctx, movement.ID.String())
		logCtx = s.logg.WithArea(logCtx, area.Name)
		s.logg.Info(logCtx, "movement recorded")
	}
	s.metrics.IncSubmission(string(movementType), "accepted")
	s.metrics.ObserveSubmitDuration(string(movementType), time.Since(started))

	dto := movementToDTO(movement)
	return &dto, nil
}

// List returns the newest movements, capped at the configured limit.
func (s *service) List(ctx context.Context, limit int) ([]MovementDTO, error) {
	if limit <= 0 || limit > s.cfg.RecentLimit {
		limit = s.cfg.RecentLimit
	}
	list, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	out := make([]MovementDTO, 0, len(list))
	for i := range list {
		out = append(out, movementToDTO(&list[i]))
	}
	return out, nil
}

// ListAll exposes the full movement history for the report folds.
func (s *service) ListAll(ctx context.Context) ([]models.Movement, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list all movements")
	}
	return list, nil
}

// Snapshot assembles the state the UI renders: stock counters, areas,
// recent movements, low-stock alerts, and today's totals.
func (s *service) Snapshot(ctx context.Context) (*StateDTO, error) {
	if err := s.Ready(ctx); err != nil {
		return nil, err
	}

	items, err := s.inventory.FindAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	areaList, err := s.areas.FindAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load areas")
	}

	recent, err := s.repo.ListRecent(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movements")
	}

	state := &StateDTO{
		Inventory: make([]InventoryDTO, 0, len(items)),
		Areas:     make([]AreaInfo, 0, len(areaList)),
		Recent:    make([]MovementDTO, 0, len(recent)),
		Alerts:    []string{},
	}

	for _, item := range items {
		low := item.IsLow()
		state.Inventory = append(state.Inventory, InventoryDTO{
			Product:   string(item.Product),
			Label:     item.Product.Label(),
			Quantity:  item.Quantity,
			MinStock:  item.MinStock,
			LowStock:  low,
			UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339),
		})
		if low {
			state.Alerts = append(state.Alerts, fmt.Sprintf(
				"Quedan %d %s (mínimo %d)", item.Quantity, item.Product.Label(), item.MinStock))
		}
	}

	for _, area := range areaList {
		state.Areas = append(state.Areas, AreaInfo{ID: area.ID, Name: area.Name})
	}

	today := time.Now().UTC().Format("2006-01-02")
	for i := range recent {
		state.Recent = append(state.Recent, movementToDTO(&recent[i]))
		if recent[i].CreatedAt.UTC().Format("2006-01-02") != today {
			continue
		}
		if recent[i].Type == enums.MovementIn {
			state.Today.Entries++
		} else {
			state.Today.Exits++
		}
	}

	return state, nil
}

// Ready fails with a setup error until all backing tables exist.
func (s *service) Ready(ctx context.Context) error {
	if !s.inventory.Probe(ctx) || !s.areas.Probe(ctx) || !s.repo.Probe(ctx) {
		return pkgerrors.New(pkgerrors.CodeSetup, "las tablas del sistema no existen")
	}
	return nil
}

func (s *service) loadItems(ctx context.Context) (map[enums.Product]models.InventoryItem, error) {
	items, err := s.inventory.FindAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	byProduct := make(map[enums.Product]models.InventoryItem, len(items))
	for _, item := range items {
		byProduct[item.Product] = item
	}
	for _, product := range enums.Products() {
		if _, ok := byProduct[product]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "productos no encontrados en inventario")
		}
	}
	return byProduct, nil
}

func (s *service) resolveArea(ctx context.Context, movementType enums.MovementType, areaID *int64) (*models.Area, error) {
	if movementType == enums.MovementIn {
		area, err := s.areas.Default(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default area")
		}
		return area, nil
	}
	area, err := s.areas.FindByID(ctx, *areaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "área no encontrada")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load area")
	}
	return area, nil
}

func (s *service) reject(movementType string) {
	if movementType == "" {
		movementType = "unknown"
	}
	s.metrics.IncSubmission(movementType, "rejected")
}
