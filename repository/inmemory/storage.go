// Package storage — резервное хранилище в памяти. Используется тестами и
// как запасной вариант, когда база данных недоступна.
package storage

import (
	"context"
	"strings"
	"sync"

	domerr "sensorman/internal/domain/errors"
	"sensorman/internal/domain/models"
)

type Storage struct {
	mu      sync.RWMutex
	users   map[int64]models.User
	devices map[int64]models.Device
	dbusers map[int64]models.DbUser
	nextID  int64
}

func NewStorage() *Storage {
	return &Storage{
		users:   make(map[int64]models.User),
		devices: make(map[int64]models.Device),
		dbusers: make(map[int64]models.DbUser),
	}
}

func (s *Storage) assignID() int64 {
	s.nextID++
	return s.nextID
}

// ---- Users ----

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return domerr.ErrAlreadyExists
		}
	}
	user.ID = s.assignID()
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[id]
	if !exists {
		return nil, domerr.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetAllUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []models.User{}
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *Storage) FindUsersByLastname(_ context.Context, prefix string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []models.User{}
	for _, user := range s.users {
		if strings.HasPrefix(user.Lastname, prefix) {
			users = append(users, user)
		}
	}
	if len(users) == 0 {
		return nil, domerr.ErrUserNotFound
	}
	return users, nil
}

func (s *Storage) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; !exists {
		return domerr.ErrUserNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[id]; !exists {
		return domerr.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// ---- Devices ----

func (s *Storage) CreateDevice(_ context.Context, device *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.devices {
		if existing.Mac == device.Mac {
			return domerr.ErrAlreadyExists
		}
	}
	device.ID = s.assignID()
	s.devices[device.ID] = *device
	return nil
}

func (s *Storage) GetDeviceByID(_ context.Context, id int64) (*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	device, exists := s.devices[id]
	if !exists {
		return nil, domerr.ErrDeviceNotFound
	}
	return &device, nil
}

func (s *Storage) GetAllDevices(_ context.Context) ([]models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devices := []models.Device{}
	for _, device := range s.devices {
		devices = append(devices, device)
	}
	return devices, nil
}

func (s *Storage) FindDevicesByModel(_ context.Context, prefix string) ([]models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devices := []models.Device{}
	for _, device := range s.devices {
		if strings.HasPrefix(device.Model, prefix) {
			devices = append(devices, device)
		}
	}
	if len(devices) == 0 {
		return nil, domerr.ErrDeviceNotFound
	}
	return devices, nil
}

func (s *Storage) UpdateDevice(_ context.Context, device *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.devices[device.ID]; !exists {
		return domerr.ErrDeviceNotFound
	}
	s.devices[device.ID] = *device
	return nil
}

func (s *Storage) DeleteDevice(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.devices[id]; !exists {
		return domerr.ErrDeviceNotFound
	}
	delete(s.devices, id)
	return nil
}

// ---- DbUsers ----

func (s *Storage) CreateDbUser(_ context.Context, user *models.DbUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.dbusers {
		if existing.Username == user.Username {
			return domerr.ErrAlreadyExists
		}
	}
	user.ID = s.assignID()
	s.dbusers[user.ID] = *user
	return nil
}

func (s *Storage) GetDbUserByID(_ context.Context, id int64) (*models.DbUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.dbusers[id]
	if !exists {
		return nil, domerr.ErrDbUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetAllDbUsers(_ context.Context) ([]models.DbUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []models.DbUser{}
	for _, user := range s.dbusers {
		users = append(users, user)
	}
	return users, nil
}

func (s *Storage) FindDbUsersByUsername(_ context.Context, username string) ([]models.DbUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []models.DbUser{}
	for _, user := range s.dbusers {
		if user.Username == username {
			users = append(users, user)
		}
	}
	if len(users) == 0 {
		return nil, domerr.ErrDbUserNotFound
	}
	return users, nil
}

func (s *Storage) UpdateDbUser(_ context.Context, user *models.DbUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dbusers[user.ID]; !exists {
		return domerr.ErrDbUserNotFound
	}
	s.dbusers[user.ID] = *user
	return nil
}

func (s *Storage) DeleteDbUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dbusers[id]; !exists {
		return domerr.ErrDbUserNotFound
	}
	delete(s.dbusers, id)
	return nil
}

// ---- Аутентификация ----

func (s *Storage) IsUserValid(_ context.Context, username, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.dbusers {
		if user.Username == username && user.Password == password {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.dbusers {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}
