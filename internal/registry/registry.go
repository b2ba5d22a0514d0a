// Package registry keeps the table of accessories that represent the sensors, and their contact state.
package registry

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"github.com/google/uuid"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	Manufacturer = "OABsoftware"
	Model        = "KNMI WeerLive"
)

// ContactState is the state of a contact sensor: a closed sensor detects contact, an open one doesn't.
type ContactState int

const (
	ContactDetected ContactState = iota
	ContactNotDetected
)

func (c ContactState) String() string {
	if c == ContactNotDetected {
		return "CONTACT_NOT_DETECTED"
	}
	return "CONTACT_DETECTED"
}

func (c ContactState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// An Accessory is a registered sensor.
type Accessory struct {
	Name         string       `json:"name"`
	UUID         uuid.UUID    `json:"uuid"`
	Manufacturer string       `json:"manufacturer"`
	Model        string       `json:"model"`
	State        ContactState `json:"state"`
	Updated      time.Time    `json:"updated,omitzero"`
}

// Open returns true if the sensor is open.
func (a Accessory) Open() bool {
	return a.State == ContactNotDetected
}

// Registry holds all registered accessories, by name.
type Registry struct {
	accessories map[string]*Accessory
	logger      *slog.Logger
	lock        sync.RWMutex
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		accessories: make(map[string]*Accessory),
		logger:      logger,
	}
}

// Register adds an accessory for the sensor. A new accessory starts closed. If an accessory with the same name exists,
// it is replaced.
func (r *Registry) Register(name string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.accessories[name]; ok {
		r.logger.Info("replacing accessory", "name", name)
		delete(r.accessories, name)
	}
	a := Accessory{
		Name:         name,
		UUID:         AccessoryUUID(name),
		Manufacturer: Manufacturer,
		Model:        Model,
		State:        ContactDetected,
	}
	r.accessories[name] = &a
	r.logger.Info("add accessory", "name", name, "uuid", a.UUID)
}

// Unregister removes the accessory for the sensor.
func (r *Registry) Unregister(name string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.accessories[name]; ok {
		delete(r.accessories, name)
		r.logger.Info("remove accessory", "name", name)
	}
}

// SetState updates the contact state of the sensor.
func (r *Registry) SetState(name string, open bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	a, ok := r.accessories[name]
	if !ok {
		r.logger.Warn("state update for unknown accessory", "name", name)
		return
	}
	a.State = ContactDetected
	if open {
		a.State = ContactNotDetected
	}
	a.Updated = time.Now()
}

// Get returns the accessory for the sensor.
func (r *Registry) Get(name string) (Accessory, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	a, ok := r.accessories[name]
	if !ok {
		return Accessory{}, false
	}
	return *a, true
}

// Accessories returns all registered accessories, sorted by name.
func (r *Registry) Accessories() []Accessory {
	r.lock.RLock()
	defer r.lock.RUnlock()
	accessories := make([]Accessory, 0, len(r.accessories))
	for _, a := range r.accessories {
		accessories = append(accessories, *a)
	}
	slices.SortFunc(accessories, func(a, b Accessory) int { return strings.Compare(a.Name, b.Name) })
	return accessories
}

// ServeHTTP lists all registered accessories as JSON.
func (r *Registry) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r.Accessories()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// AccessoryUUID returns the identifier of the accessory for a sensor. It's derived from the sensor's name, the same
// way HAP-NodeJS generates UUIDs, so the identifier doesn't change across restarts.
func AccessoryUUID(name string) uuid.UUID {
	sum := sha1.Sum([]byte("WeerLive_" + name))
	digest := hex.EncodeToString(sum[:])

	var b strings.Builder
	var i int
	for _, c := range "xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx" {
		switch c {
		case 'x':
			b.WriteByte(digest[i])
			i++
		case 'y':
			nibble, _ := strconv.ParseUint(digest[i:i+1], 16, 8)
			b.WriteString(strconv.FormatUint(nibble&0x3|0x8, 16))
			i++
		default:
			b.WriteRune(c)
		}
	}
	return uuid.MustParse(b.String())
}
