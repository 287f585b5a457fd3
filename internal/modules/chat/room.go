package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/google/uuid"
)

// OtherOwner owns the seeded rooms the viewer did not create.
const OtherOwner = "other-user"

// Room is a chat room as listed on the dashboard.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MemberCount  int       `json:"memberCount"`
	CreatedBy    string    `json:"createdBy"`
	LastActivity time.Time `json:"lastActivity"`
	IsActive     bool      `json:"isActive"`
}

// CreatedMessage and DeletedMessage are the notices shown after a change.
func CreatedMessage(name string) string { return fmt.Sprintf("Chatroom %q created successfully! 🎉", name) }
func DeletedMessage(name string) string { return fmt.Sprintf("Chatroom %q deleted successfully", name) }

// Directory is one user's list of rooms, newest first.
type Directory struct {
	mu    sync.RWMutex
	rooms []Room
	clock clock.Clock
}

// NewDirectory seeds the four default rooms. Two of them belong to owner.
func NewDirectory(owner string, c clock.Clock) *Directory {
	if c == nil {
		c = clock.Real{}
	}
	now := c.Now()
	return &Directory{
		clock: c,
		rooms: []Room{
			{ID: "1", Name: "General", Description: "Main discussion room for everyone", MemberCount: 45,
				CreatedBy: owner, LastActivity: now.Add(-45 * time.Minute), IsActive: true},
			{ID: "2", Name: "Tech Talk", Description: "Discuss latest tech trends and developments", MemberCount: 23,
				CreatedBy: OtherOwner, LastActivity: now.Add(-2 * time.Hour), IsActive: true},
			{ID: "3", Name: "Random", Description: "Casual conversations and random topics", MemberCount: 31,
				CreatedBy: owner, LastActivity: now.Add(-150 * time.Minute)},
			{ID: "4", Name: "Dev Chat", Description: "Development discussions and help with 100+ messages", MemberCount: 67,
				CreatedBy: OtherOwner, LastActivity: now, IsActive: true},
		},
	}
}

// List returns the rooms whose name or description contains search,
// ignoring case. An empty search lists everything.
func (d *Directory) List(search string) []Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		if q == "" || strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Description), q) {
			out = append(out, r)
		}
	}
	return out
}

func (d *Directory) Get(id string) (Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return Room{}, ErrRoomNotFound
}

// Create adds a room owned by owner at the top of the list.
func (d *Directory) Create(owner, name, description string) (Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Room{}, ErrRoomNameRequired
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "No description"
	}
	r := Room{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		MemberCount:  1,
		CreatedBy:    owner,
		LastActivity: d.clock.Now(),
		IsActive:     true,
	}
	d.mu.Lock()
	d.rooms = append([]Room{r}, d.rooms...)
	d.mu.Unlock()
	return r, nil
}

// Delete removes a room. Only its creator may delete it.
func (d *Directory) Delete(owner, id string) (Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.rooms {
		if r.ID != id {
			continue
		}
		if r.CreatedBy != owner {
			return Room{}, ErrNotRoomOwner
		}
		d.rooms = append(d.rooms[:i], d.rooms[i+1:]...)
		return r, nil
	}
	return Room{}, ErrRoomNotFound
}

// Directories hands out one Directory per user.
type Directories struct {
	mu    sync.Mutex
	dirs  map[string]*Directory
	clock clock.Clock
}

func NewDirectories(c clock.Clock) *Directories {
	return &Directories{dirs: make(map[string]*Directory), clock: c}
}

// For returns userID's directory, seeding it on first use.
func (ds *Directories) For(userID string) *Directory {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	d, ok := ds.dirs[userID]
	if !ok {
		d = NewDirectory(userID, ds.clock)
		ds.dirs[userID] = d
	}
	return d
}
