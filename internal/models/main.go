// Package models defines the core data structures shared by the
// synchronization, audit, presence, and file-storage services.
package models

import (
	"encoding/json"
	"time"
)

// Tender represents one business tender record. The dashboard clients own
// the full shape of a tender; the server only relies on its ID and
// timestamps, so every other field is carried through Extra untouched.
type Tender struct {
	// ID is the unique identifier for the tender.
	ID string
	// CreatedAt is the client-supplied creation timestamp.
	CreatedAt string
	// UpdatedAt is the client-supplied last-modification timestamp.
	UpdatedAt string
	// Extra holds all remaining fields of the record verbatim.
	Extra map[string]any
}

// MarshalJSON flattens the known fields and Extra into one JSON object.
func (t Tender) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Extra)+3)
	for k, v := range t.Extra {
		m[k] = v
	}
	m["id"] = t.ID
	if t.CreatedAt != "" {
		m["createdAt"] = t.CreatedAt
	}
	if t.UpdatedAt != "" {
		m["updatedAt"] = t.UpdatedAt
	}
	return json.Marshal(m)
}

// UnmarshalJSON extracts the known fields and keeps everything else in Extra.
func (t *Tender) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if v, ok := m["id"].(string); ok {
		t.ID = v
	}
	if v, ok := m["createdAt"].(string); ok {
		t.CreatedAt = v
	}
	if v, ok := m["updatedAt"].(string); ok {
		t.UpdatedAt = v
	}
	delete(m, "id")
	delete(m, "createdAt")
	delete(m, "updatedAt")
	if len(m) > 0 {
		t.Extra = m
	}
	return nil
}

// User represents an application user. Username is the unique key; the
// password field is only touched by the dedicated password update, all
// other fields pass through Extra.
type User struct {
	// Username is the unique login name of the user.
	Username string
	// Password is the stored credential, opaque to this server.
	Password string
	// Extra holds all remaining fields of the record verbatim.
	Extra map[string]any
}

// MarshalJSON flattens the known fields and Extra into one JSON object.
func (u User) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(u.Extra)+2)
	for k, v := range u.Extra {
		m[k] = v
	}
	m["username"] = u.Username
	if u.Password != "" {
		m["password"] = u.Password
	}
	return json.Marshal(m)
}

// UnmarshalJSON extracts the known fields and keeps everything else in Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if v, ok := m["username"].(string); ok {
		u.Username = v
	}
	if v, ok := m["password"].(string); ok {
		u.Password = v
	}
	delete(m, "username")
	delete(m, "password")
	if len(m) > 0 {
		u.Extra = m
	}
	return nil
}

// Settings holds the deployment-wide singleton configuration shown in the
// dashboard header and reports.
type Settings struct {
	CompanyName string `json:"companyName,omitempty"`
	CompanyLogo string `json:"companyLogo,omitempty"`
	ContactInfo string `json:"contactInfo,omitempty"`
	Theme       string `json:"theme,omitempty"`
}

// DatasetSnapshot is the complete shared dataset as one versioned unit.
// It is read and replaced as a whole; there are no partial-field updates
// at the storage layer.
type DatasetSnapshot struct {
	// Tenders is the ordered collection of tender records, unique by ID.
	Tenders []Tender `json:"tenders"`
	// Users is the ordered collection of users, unique by Username.
	Users []User `json:"users"`
	// Settings is the singleton deployment configuration.
	Settings Settings `json:"settings"`
	// LastUpdated is the server time of the last successful write.
	LastUpdated time.Time `json:"lastUpdated"`
	// UpdateSource tags which client performed the last write.
	UpdateSource string `json:"updateSource"`
}

// EmptySnapshot returns the defined zero dataset used when no snapshot has
// ever been persisted.
func EmptySnapshot() DatasetSnapshot {
	return DatasetSnapshot{
		Tenders: []Tender{},
		Users:   []User{},
	}
}

// AuditAction enumerates the recordable action kinds.
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
	ActionLogin  AuditAction = "LOGIN"
	ActionLogout AuditAction = "LOGOUT"
	ActionExport AuditAction = "EXPORT"
)

// AuditEntity enumerates the subject kinds an audit entry can refer to.
type AuditEntity string

const (
	EntityTender AuditEntity = "TENDER"
	EntityUser   AuditEntity = "USER"
	EntityFile   AuditEntity = "FILE"
	EntitySystem AuditEntity = "SYSTEM"
	EntityReport AuditEntity = "REPORT"
)

// ChangeSet captures a structured diff attached to an audit entry.
type ChangeSet struct {
	// Before is the subject state prior to the change.
	Before any `json:"before,omitempty"`
	// After is the subject state after the change.
	After any `json:"after,omitempty"`
	// Fields lists the names of the changed fields.
	Fields []string `json:"fields,omitempty"`
}

// AuditEntry is one immutable record of a user-attributable action.
// It is created only via AuditService.Append, which assigns ID and
// Timestamp; entries are never mutated afterwards.
type AuditEntry struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Username   string      `json:"username"`
	UserRole   string      `json:"userRole,omitempty"`
	Action     AuditAction `json:"action"`
	Entity     AuditEntity `json:"entity"`
	EntityID   string      `json:"entityId,omitempty"`
	EntityName string      `json:"entityName,omitempty"`
	Changes    *ChangeSet  `json:"changes,omitempty"`
	Details    string      `json:"details,omitempty"`
	IPAddress  string      `json:"ipAddress,omitempty"`
	UserAgent  string      `json:"userAgent,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// AuditFilter selects audit entries; zero-valued fields are ignored and
// the set fields are AND-combined.
type AuditFilter struct {
	// UserID matches entries by actor.
	UserID string
	// Action matches entries by action kind.
	Action AuditAction
	// Entity matches entries by subject kind.
	Entity AuditEntity
	// StartDate is the inclusive lower bound on Timestamp.
	StartDate time.Time
	// EndDate is the inclusive upper bound; it is extended through the
	// end of its calendar day.
	EndDate time.Time
}

// AuditQueryResult is one page of audit entries.
type AuditQueryResult struct {
	// Entries is the requested page, newest first.
	Entries []AuditEntry `json:"entries"`
	// Total is the post-filter, pre-pagination entry count.
	Total int `json:"total"`
	// HasMore reports whether entries exist beyond this page.
	HasMore bool `json:"hasMore"`
}

// PresenceEntry is one active session in the in-memory registry.
// It is never persisted.
type PresenceEntry struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName,omitempty"`
	Role         string    `json:"role,omitempty"`
	LastActivity time.Time `json:"lastActivity"`
}

// FileMetadata is the sidecar record stored alongside an uploaded file's
// raw bytes. A stored id is valid only if both halves exist.
type FileMetadata struct {
	// ID is the generated identifier, also used as the on-disk name.
	ID string `json:"id"`
	// Filename is the original upload name.
	Filename string `json:"filename"`
	// MimeType is the content type reported at upload.
	MimeType string `json:"mimetype"`
	// Size is the content length in bytes.
	Size int64 `json:"size"`
	// UploadedAt is the server time of the upload.
	UploadedAt time.Time `json:"uploadedAt"`
	// FileType is an optional caller-supplied tag (e.g. "logo").
	FileType string `json:"fileType,omitempty"`
	// TenderID optionally links the file to a tender record.
	TenderID string `json:"tenderId,omitempty"`
}
