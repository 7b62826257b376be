package db

import "github.com/tgienger/tung/internal/models"

// SessionKey is the settings key holding the logged-in user record
const SessionKey = "tungTungUser"

// SaveSession persists the logged-in user
func (db *DB) SaveSession(u models.User) error {
	return db.SetJSON(SessionKey, u)
}

// LoadSession returns the persisted user, or nil when nobody is logged in
func (db *DB) LoadSession() (*models.User, error) {
	var u models.User
	ok, err := db.GetJSON(SessionKey, &u)
	if err != nil || !ok {
		return nil, err
	}
	if u.UID == 0 {
		return nil, nil
	}
	return &u, nil
}

// ClearSession forgets the logged-in user
func (db *DB) ClearSession() error {
	return db.DeleteSetting(SessionKey)
}
