package db

import (
	"context"
	"errors"
	"time"

	domerr "sensorman/internal/domain/errors"
	"sensorman/internal/domain/models"
	"sensorman/internal/logs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const opTimeout = 15 * time.Second

type Storage struct {
	conn *pgx.Conn

	prepCreateUser      string
	prepGetUserByID     string
	prepGetAllUsers     string
	prepFindUsers       string
	prepUpdateUser      string
	prepDeleteUser      string
	prepCreateDevice    string
	prepGetDeviceByID   string
	prepGetAllDevices   string
	prepFindDevices     string
	prepUpdateDevice    string
	prepDeleteDevice    string
	prepCreateDbUser    string
	prepGetDbUserByID   string
	prepGetAllDbUsers   string
	prepFindDbUsers     string
	prepUpdateDbUser    string
	prepDeleteDbUser    string
	prepIsUserValid     string
	prepUsernameExists  string
}

func NewStorage(connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		logs.Logger.Errorf("не удалось подключиться к базе данных: %v", err)
		return nil, err
	}

	s := &Storage{
		conn: conn,

		prepCreateUser:  `INSERT INTO users (firstname, lastname, email, address, image_url) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		prepGetUserByID: `SELECT id, firstname, lastname, email, address, image_url FROM users WHERE id = $1`,
		prepGetAllUsers: `SELECT id, firstname, lastname, email, address, image_url FROM users ORDER BY id`,
		prepFindUsers:   `SELECT id, firstname, lastname, email, address, image_url FROM users WHERE lastname LIKE $1 || '%' ORDER BY id`,
		prepUpdateUser:  `UPDATE users SET firstname = $1, lastname = $2, email = $3, address = $4, image_url = $5 WHERE id = $6`,
		prepDeleteUser:  `DELETE FROM users WHERE id = $1`,

		prepCreateDevice:  `INSERT INTO devices (model, serialnumber, mac, ip, image_url) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		prepGetDeviceByID: `SELECT id, model, serialnumber, mac, ip, image_url FROM devices WHERE id = $1`,
		prepGetAllDevices: `SELECT id, model, serialnumber, mac, ip, image_url FROM devices ORDER BY id`,
		prepFindDevices:   `SELECT id, model, serialnumber, mac, ip, image_url FROM devices WHERE model LIKE $1 || '%' ORDER BY id`,
		prepUpdateDevice:  `UPDATE devices SET model = $1, serialnumber = $2, mac = $3, ip = $4, image_url = $5 WHERE id = $6`,
		prepDeleteDevice:  `DELETE FROM devices WHERE id = $1`,

		prepCreateDbUser:  `INSERT INTO dbusers (username, password) VALUES ($1, $2) RETURNING id`,
		prepGetDbUserByID: `SELECT id, username, password FROM dbusers WHERE id = $1`,
		prepGetAllDbUsers: `SELECT id, username, password FROM dbusers ORDER BY id`,
		prepFindDbUsers:   `SELECT id, username, password FROM dbusers WHERE username = $1 ORDER BY id`,
		prepUpdateDbUser:  `UPDATE dbusers SET username = $1, password = $2 WHERE id = $3`,
		prepDeleteDbUser:  `DELETE FROM dbusers WHERE id = $1`,

		prepIsUserValid:    `SELECT count(*) > 0 FROM dbusers WHERE username = $1 AND password = $2`,
		prepUsernameExists: `SELECT count(*) > 0 FROM dbusers WHERE username = $1`,
	}
	logs.Logger.Info("соединение с базой данных установлено успешно")
	return s, nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// prepRow подготавливает именованный запрос и возвращает одну строку.
func (s *Storage) prepRow(ctx context.Context, name, sql string, args ...any) (pgx.Row, error) {
	stmt, err := s.conn.Prepare(ctx, name, sql)
	if err != nil {
		logs.Logger.Errorf("не удалось подготовить запрос %s: %v", name, err)
		return nil, err
	}
	return s.conn.QueryRow(ctx, stmt.Name, args...), nil
}

func (s *Storage) prepQuery(ctx context.Context, name, sql string, args ...any) (pgx.Rows, error) {
	stmt, err := s.conn.Prepare(ctx, name, sql)
	if err != nil {
		logs.Logger.Errorf("не удалось подготовить запрос %s: %v", name, err)
		return nil, err
	}
	return s.conn.Query(ctx, stmt.Name, args...)
}

func (s *Storage) prepExec(ctx context.Context, name, sql string, args ...any) (pgconn.CommandTag, error) {
	stmt, err := s.conn.Prepare(ctx, name, sql)
	if err != nil {
		logs.Logger.Errorf("не удалось подготовить запрос %s: %v", name, err)
		return pgconn.CommandTag{}, err
	}
	return s.conn.Exec(ctx, stmt.Name, args...)
}

// mapInsertErr переводит нарушение ограничения уникальности в доменную
// ошибку конфликта, остальные ошибки отдаёт как есть.
func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domerr.ErrAlreadyExists
	}
	return err
}

// ---- Users ----

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "create_user", s.prepCreateUser,
		user.Firstname, user.Lastname, user.Email, user.Address, user.ImageURL)
	if err != nil {
		return err
	}
	if err := row.Scan(&user.ID); err != nil {
		logs.Logger.Errorf("не удалось создать пользователя: %v", err)
		return mapInsertErr(err)
	}
	logs.Logger.Infof("пользователь создан: %d", user.ID)
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "get_user_by_id", s.prepGetUserByID, id)
	if err != nil {
		return nil, err
	}
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Email, &user.Address, &user.ImageURL); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domerr.ErrUserNotFound
		}
		logs.Logger.Errorf("ошибка при получении пользователя: %v", err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetAllUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	rows, err := s.prepQuery(ctx, "get_all_users", s.prepGetAllUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (s *Storage) FindUsersByLastname(ctx context.Context, prefix string) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	rows, err := s.prepQuery(ctx, "find_users_by_lastname", s.prepFindUsers, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domerr.ErrUserNotFound
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	ct, err := s.prepExec(ctx, "update_user", s.prepUpdateUser,
		user.Firstname, user.Lastname, user.Email, user.Address, user.ImageURL, user.ID)
	if err != nil {
		logs.Logger.Errorf("не удалось обновить пользователя: %v", err)
		return mapInsertErr(err)
	}
	if ct.RowsAffected() == 0 {
		return domerr.ErrUserNotFound
	}
	logs.Logger.Infof("пользователь обновлён: %d", user.ID)
	return nil
}

func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	ct, err := s.prepExec(ctx, "delete_user", s.prepDeleteUser, id)
	if err != nil {
		logs.Logger.Errorf("не удалось удалить пользователя: %v", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return domerr.ErrUserNotFound
	}
	logs.Logger.Infof("пользователь удалён: %d", id)
	return nil
}

func scanUsers(rows pgx.Rows) ([]models.User, error) {
	users := []models.User{}
	for rows.Next() {
		user := models.User{}
		if err := rows.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Email, &user.Address, &user.ImageURL); err != nil {
			logs.Logger.Errorf("ошибка при чтении пользователей: %v", err)
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ---- Devices ----

func (s *Storage) CreateDevice(ctx context.Context, device *models.Device) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "create_device", s.prepCreateDevice,
		device.Model, device.Serialnumber, device.Mac, device.IP, device.ImageURL)
	if err != nil {
		return err
	}
	if err := row.Scan(&device.ID); err != nil {
		logs.Logger.Errorf("не удалось создать устройство: %v", err)
		return mapInsertErr(err)
	}
	logs.Logger.Infof("устройство создано: %d", device.ID)
	return nil
}

func (s *Storage) GetDeviceByID(ctx context.Context, id int64) (*models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "get_device_by_id", s.prepGetDeviceByID, id)
	if err != nil {
		return nil, err
	}
	device := &models.Device{}
	if err := row.Scan(&device.ID, &device.Model, &device.Serialnumber, &device.Mac, &device.IP, &device.ImageURL); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domerr.ErrDeviceNotFound
		}
		logs.Logger.Errorf("ошибка при получении устройства: %v", err)
		return nil, err
	}
	return device, nil
}

func (s *Storage) GetAllDevices(ctx context.Context) ([]models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	rows, err := s.prepQuery(ctx, "get_all_devices", s.prepGetAllDevices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDevices(rows)
}

func (s *Storage) FindDevicesByModel(ctx context.Context, prefix string) ([]models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	rows, err := s.prepQuery(ctx, "find_devices_by_model", s.prepFindDevices, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	devices, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, domerr.ErrDeviceNotFound
	}
	return devices, nil
}

func (s *Storage) UpdateDevice(ctx context.Context, device *models.Device) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	ct, err := s.prepExec(ctx, "update_device", s.prepUpdateDevice,
		device.Model, device.Serialnumber, device.Mac, device.IP, device.ImageURL, device.ID)
	if err != nil {
		logs.Logger.Errorf("не удалось обновить устройство: %v", err)
		return mapInsertErr(err)
	}
	if ct.RowsAffected() == 0 {
		return domerr.ErrDeviceNotFound
	}
	logs.Logger.Infof("устройство обновлено: %d", device.ID)
	return nil
}

func (s *Storage) DeleteDevice(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	ct, err := s.prepExec(ctx, "delete_device", s.prepDeleteDevice, id)
	if err != nil {
		logs.Logger.Errorf("не удалось удалить устройство: %v", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return domerr.ErrDeviceNotFound
	}
	logs.Logger.Infof("устройство удалено: %d", id)
	return nil
}

func scanDevices(rows pgx.Rows) ([]models.Device, error) {
	devices := []models.Device{}
	for rows.Next() {
		device := models.Device{}
		if err := rows.Scan(&device.ID, &device.Model, &device.Serialnumber, &device.Mac, &device.IP, &device.ImageURL); err != nil {
			logs.Logger.Errorf("ошибка при чтении устройств: %v", err)
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// ---- DbUsers ----

func (s *Storage) CreateDbUser(ctx context.Context, user *models.DbUser) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "create_dbuser", s.prepCreateDbUser, user.Username, user.Password)
	if err != nil {
		return err
	}
	if err := row.Scan(&user.ID); err != nil {
		logs.Logger.Errorf("не удалось создать учётную запись: %v", err)
		return mapInsertErr(err)
	}
	logs.Logger.Infof("учётная запись создана: %d", user.ID)
	return nil
}

func (s *Storage) GetDbUserByID(ctx context.Context, id int64) (*models.DbUser, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "get_dbuser_by_id", s.prepGetDbUserByID, id)
	if err != nil {
		return nil, err
	}
	user := &models.DbUser{}
	if err := row.Scan(&user.ID, &user.Username, &user.Password); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domerr.ErrDbUserNotFound
		}
		logs.Logger.Errorf("ошибка при получении учётной записи: %v", err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetAllDbUsers(ctx context.Context) ([]models.DbUser, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	rows, err := s.prepQuery(ctx, "get_all_dbusers", s.prepGetAllDbUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDbUsers(rows)
}

func (s *Storage) FindDbUsersByUsername(ctx context.Context, username string) ([]models.DbUser, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	rows, err := s.prepQuery(ctx, "find_dbusers_by_username", s.prepFindDbUsers, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users, err := scanDbUsers(rows)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domerr.ErrDbUserNotFound
	}
	return users, nil
}

func (s *Storage) UpdateDbUser(ctx context.Context, user *models.DbUser) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	ct, err := s.prepExec(ctx, "update_dbuser", s.prepUpdateDbUser, user.Username, user.Password, user.ID)
	if err != nil {
		logs.Logger.Errorf("не удалось обновить учётную запись: %v", err)
		return mapInsertErr(err)
	}
	if ct.RowsAffected() == 0 {
		return domerr.ErrDbUserNotFound
	}
	logs.Logger.Infof("учётная запись обновлена: %d", user.ID)
	return nil
}

func (s *Storage) DeleteDbUser(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	ct, err := s.prepExec(ctx, "delete_dbuser", s.prepDeleteDbUser, id)
	if err != nil {
		logs.Logger.Errorf("не удалось удалить учётную запись: %v", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return domerr.ErrDbUserNotFound
	}
	logs.Logger.Infof("учётная запись удалена: %d", id)
	return nil
}

func scanDbUsers(rows pgx.Rows) ([]models.DbUser, error) {
	users := []models.DbUser{}
	for rows.Next() {
		user := models.DbUser{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Password); err != nil {
			logs.Logger.Errorf("ошибка при чтении учётных записей: %v", err)
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ---- Аутентификация ----

// IsUserValid сверяет имя и пароль одним запросом. Пароли хранятся и
// сравниваются открытым текстом.
func (s *Storage) IsUserValid(ctx context.Context, username, password string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "is_user_valid", s.prepIsUserValid, username, password)
	if err != nil {
		return false, err
	}
	var valid bool
	if err := row.Scan(&valid); err != nil {
		logs.Logger.Errorf("ошибка при проверке учетных данных: %v", err)
		return false, err
	}
	return valid, nil
}

func (s *Storage) UsernameExists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	row, err := s.prepRow(ctx, "username_exists", s.prepUsernameExists, username)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		logs.Logger.Errorf("ошибка при проверке занятости имени: %v", err)
		return false, err
	}
	return exists, nil
}
