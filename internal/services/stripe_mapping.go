// internal/services/stripe_mapping.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
)

// StripeMapping holds the remote identifiers for one local product.
type StripeMapping struct {
	ProductID string `json:"product_id"`
	PriceID   string `json:"price_id"`
}

type MappingSnapshot struct {
	Mappings map[uuid.UUID]StripeMapping `json:"mappings"`
	SyncedAt *time.Time                  `json:"synced_at"`
	Unmapped []string                    `json:"unmapped,omitempty"`
}

// MappingCache is the process-local table of local product id to remote
// product and price ids. Sync replaces the whole table under the lock.
type MappingCache struct {
	db      *gorm.DB
	gateway PaymentGateway
	now     func() time.Time

	mu       sync.RWMutex
	entries  map[uuid.UUID]StripeMapping
	unmapped []string
	syncedAt time.Time
}

func NewMappingCache(db *gorm.DB, gateway PaymentGateway) *MappingCache {
	return &MappingCache{
		db:      db,
		gateway: gateway,
		now:     time.Now,
		entries: make(map[uuid.UUID]StripeMapping),
	}
}

// Sync rebuilds the mapping from the remote catalog. Local products are
// matched by case-insensitive exact name; the first active price of a remote
// product wins. Products without a match are logged and left out.
func (m *MappingCache) Sync(ctx context.Context) (*MappingSnapshot, error) {
	remoteProducts, err := m.gateway.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	remotePrices, err := m.gateway.ListActivePrices(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(remoteProducts))
	for _, p := range remoteProducts {
		key := strings.ToLower(p.Name)
		if _, exists := byName[key]; !exists {
			byName[key] = p.ID
		}
	}
	priceByProduct := make(map[string]string, len(remotePrices))
	for _, p := range remotePrices {
		if _, exists := priceByProduct[p.ProductID]; !exists {
			priceByProduct[p.ProductID] = p.ID
		}
	}

	var products []models.Product
	if err := m.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	entries := make(map[uuid.UUID]StripeMapping, len(products))
	var unmapped []string
	for _, p := range products {
		remoteID, ok := byName[strings.ToLower(p.Name)]
		if !ok {
			logrus.WithFields(logrus.Fields{"product_id": p.ID, "name": p.Name}).Warn("No Stripe product matches catalog product")
			unmapped = append(unmapped, p.Name)
			continue
		}
		priceID, ok := priceByProduct[remoteID]
		if !ok {
			logrus.WithFields(logrus.Fields{"product_id": p.ID, "stripe_product_id": remoteID}).Warn("Stripe product has no active price")
			unmapped = append(unmapped, p.Name)
			continue
		}
		entries[p.ID] = StripeMapping{ProductID: remoteID, PriceID: priceID}
	}

	m.mu.Lock()
	m.entries = entries
	m.unmapped = unmapped
	m.syncedAt = m.now()
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"mapped": len(entries), "unmapped": len(unmapped)}).Info("Stripe mapping synced")
	return m.Snapshot(), nil
}

// EnsureFresh syncs when the table was never built or is older than ttl.
func (m *MappingCache) EnsureFresh(ctx context.Context, ttl time.Duration) error {
	m.mu.RLock()
	fresh := !m.syncedAt.IsZero() && m.now().Sub(m.syncedAt) < ttl
	m.mu.RUnlock()

	if fresh {
		return nil
	}
	_, err := m.Sync(ctx)
	return err
}

// Apply overlays remote ids onto cart items. Items without a mapping keep the
// ids they already carry.
func (m *MappingCache) Apply(cart *Cart) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range cart.Items {
		if entry, ok := m.entries[cart.Items[i].ProductID]; ok {
			cart.Items[i].StripeProductID = entry.ProductID
			cart.Items[i].StripePriceID = entry.PriceID
		}
	}
}

func (m *MappingCache) Lookup(productID uuid.UUID) (StripeMapping, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[productID]
	return entry, ok
}

func (m *MappingCache) Snapshot() *MappingSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := &MappingSnapshot{
		Mappings: make(map[uuid.UUID]StripeMapping, len(m.entries)),
		Unmapped: append([]string(nil), m.unmapped...),
	}
	for id, entry := range m.entries {
		snapshot.Mappings[id] = entry
	}
	if !m.syncedAt.IsZero() {
		syncedAt := m.syncedAt
		snapshot.SyncedAt = &syncedAt
	}
	return snapshot
}
