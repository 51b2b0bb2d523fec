package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deskhub/internal/balance"
	"deskhub/internal/model"
	"deskhub/internal/schema"
	"deskhub/internal/util"

	"gorm.io/gorm"
)

// Benefits is the flat set of benefit columns shared by user input and
// user rows.
type Benefits struct {
	UserLeaveTotal       balance.Amount `json:"user_leave_total" gorm:"column:user_leave_total"`
	UserClaimoffTotal    balance.Amount `json:"user_claimoff_total" gorm:"column:user_claimoff_total"`
	UserChildcareTotal   balance.Amount `json:"user_childcare_total" gorm:"column:user_childcare_total"`
	UserMcTotal          balance.Amount `json:"user_mc_total" gorm:"column:user_mc_total"`
	UserLeaveUsed        balance.Amount `json:"user_leave_used" gorm:"column:user_leave_used"`
	UserClaimoffUsed     balance.Amount `json:"user_claimoff_used" gorm:"column:user_claimoff_used"`
	UserChildcareUsed    balance.Amount `json:"user_childcare_used" gorm:"column:user_childcare_used"`
	UserMcUsed           balance.Amount `json:"user_mc_used" gorm:"column:user_mc_used"`
	UserLeaveBalance     balance.Amount `json:"user_leave_balance" gorm:"column:user_leave_balance"`
	UserClaimoffBalance  balance.Amount `json:"user_claimoff_balance" gorm:"column:user_claimoff_balance"`
	UserChildcareBalance balance.Amount `json:"user_childcare_balance" gorm:"column:user_childcare_balance"`
	UserMcBalance        balance.Amount `json:"user_mc_balance" gorm:"column:user_mc_balance"`
}

func (b *Benefits) triple(cat balance.Category) (total, used, bal *balance.Amount) {
	switch cat {
	case balance.Leave:
		return &b.UserLeaveTotal, &b.UserLeaveUsed, &b.UserLeaveBalance
	case balance.ClaimOff:
		return &b.UserClaimoffTotal, &b.UserClaimoffUsed, &b.UserClaimoffBalance
	case balance.Childcare:
		return &b.UserChildcareTotal, &b.UserChildcareUsed, &b.UserChildcareBalance
	default:
		return &b.UserMcTotal, &b.UserMcUsed, &b.UserMcBalance
	}
}

func (b *Benefits) Sheet() balance.Sheet {
	sheet := make(balance.Sheet, len(balance.Categories))
	for _, cat := range balance.Categories {
		total, used, bal := b.triple(cat)
		sheet[cat] = balance.Triple{Total: *total, Used: *used, Balance: *bal}
	}
	return sheet
}

func (b *Benefits) SetSheet(sheet balance.Sheet) {
	for cat, tr := range sheet {
		total, used, bal := b.triple(cat)
		*total, *used, *bal = tr.Total, tr.Used, tr.Balance
	}
}

// Recomputed returns a copy whose balances are total - used.
func (b Benefits) Recomputed() Benefits {
	b.SetSheet(balance.RecomputeAll(b.Sheet()))
	return b
}

func (b *Benefits) part(cat balance.Category, part string) balance.Amount {
	total, used, bal := b.triple(cat)
	switch part {
	case "total":
		return *total
	case "used":
		return *used
	default:
		return *bal
	}
}

func (b *Benefits) assignments() []schema.Assignment {
	out := make([]schema.Assignment, 0, len(balance.Categories)*len(schema.BenefitParts))
	for _, part := range schema.BenefitParts {
		for _, cat := range balance.Categories {
			out = append(out, schema.Assignment{Field: schema.BenefitField(cat, part), Value: b.part(cat, part)})
		}
	}
	return out
}

// UserRecord is one users row in its logical shape. Every field is always
// present; fields without a physical column come back null.
type UserRecord struct {
	ID        int64          `json:"id" gorm:"column:id"`
	Username  string         `json:"username" gorm:"column:username"`
	FullName  *string        `json:"full_name" gorm:"column:full_name"`
	Email     *string        `json:"email" gorm:"column:email"`
	Role      *string        `json:"role" gorm:"column:role"`
	IsActive  *bool          `json:"is_active" gorm:"column:is_active"`
	LastLogin model.NullTime `json:"last_login" gorm:"column:last_login"`
	UpdatedOn model.NullTime `json:"updated_on" gorm:"column:updated_on"`
	UpdatedBy *string        `json:"updated_by" gorm:"column:updated_by"`
	CreatedAt model.NullTime `json:"created_at" gorm:"column:created_at"`
	NricFin   *string        `json:"nric_fin" gorm:"column:nric_fin"`
	MobileNo  *string        `json:"mobile_no" gorm:"column:mobile_no"`
	Address1  *string        `json:"address1" gorm:"column:address1"`
	Address2  *string        `json:"address2" gorm:"column:address2"`
	Address3  *string        `json:"address3" gorm:"column:address3"`
	Birthdate model.NullDate `json:"birthdate" gorm:"column:birthdate"`
	Office    *string        `json:"office" gorm:"column:office"`
	Benefits
}

func (u *UserRecord) RoleName() string {
	if u.Role == nil || *u.Role == "" {
		return model.RoleUser
	}
	return *u.Role
}

func (u *UserRecord) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

type userWithHash struct {
	UserRecord
	PasswordHash *string `gorm:"column:password_hash"`
}

// UserInput is the full user payload accepted on create and update.
// Omitted optional fields are written as null.
type UserInput struct {
	Username  string         `json:"username"`
	Password  string         `json:"password"`
	FullName  string         `json:"full_name"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	IsActive  *bool          `json:"is_active"`
	UpdatedBy string         `json:"updated_by"`
	NricFin   string         `json:"nric_fin"`
	MobileNo  string         `json:"mobile_no"`
	Address1  string         `json:"address1"`
	Address2  string         `json:"address2"`
	Address3  string         `json:"address3"`
	Birthdate model.NullDate `json:"birthdate"`
	Office    string         `json:"office"`
	Benefits
}

func nullIfBlank(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func (in *UserInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return invalid("Username is required.")
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !model.ValidRole(in.Role) {
		return invalid("Role must be one of user, admin, superadmin.")
	}
	if !model.ValidOffice(in.Office) {
		return invalid("Office must be Singapore, Kuala Lumpur or empty.")
	}
	if in.IsActive == nil {
		active := true
		in.IsActive = &active
	}
	if in.UpdatedBy == "" {
		in.UpdatedBy = "system"
	}
	return nil
}

func (in *UserInput) assignments() []schema.Assignment {
	values := []schema.Assignment{
		{Field: schema.Username, Value: in.Username},
		{Field: schema.FullName, Value: nullIfBlank(in.FullName)},
		{Field: schema.Email, Value: nullIfBlank(in.Email)},
		{Field: schema.Role, Value: in.Role},
		{Field: schema.IsActive, Value: *in.IsActive},
		{Field: schema.UpdatedBy, Value: in.UpdatedBy},
		{Field: schema.NricFin, Value: nullIfBlank(in.NricFin)},
		{Field: schema.MobileNo, Value: nullIfBlank(in.MobileNo)},
		{Field: schema.Address1, Value: nullIfBlank(in.Address1)},
		{Field: schema.Address2, Value: nullIfBlank(in.Address2)},
		{Field: schema.Address3, Value: nullIfBlank(in.Address3)},
		{Field: schema.Birthdate, Value: in.Birthdate},
		{Field: schema.Office, Value: nullIfBlank(in.Office)},
	}
	return append(values, in.Benefits.assignments()...)
}

// UserStore reads and writes the users table through its resolved column
// mapping, so it works against any drifted variant of the table.
type UserStore struct {
	db       *gorm.DB
	resolver *schema.Resolver
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{
		db:       db,
		resolver: schema.NewResolver(schema.GormSource{DB: db}, "users"),
	}
}

func (s *UserStore) Resolver() *schema.Resolver { return s.resolver }

func (s *UserStore) mapping(ctx context.Context) (*schema.Mapping, *gorm.DB, error) {
	m, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	return m, s.db.WithContext(ctx), nil
}

func (s *UserStore) List(ctx context.Context) ([]UserRecord, error) {
	m, db, err := s.mapping(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]UserRecord, 0)
	if err := db.Raw(m.SelectAll()).Scan(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *UserStore) Get(ctx context.Context, id int64) (*UserRecord, error) {
	m, db, err := s.mapping(ctx)
	if err != nil {
		return nil, err
	}
	query, err := m.SelectBy(schema.ID, false)
	if err != nil {
		return nil, err
	}
	var users []UserRecord
	if err := db.Raw(query, id).Scan(&users).Error; err != nil {
		return nil, fmt.Errorf("reading user %d: %w", id, err)
	}
	if len(users) == 0 {
		return nil, notFound("User")
	}
	return &users[0], nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	m, db, err := s.mapping(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Raw(m.Count()).Scan(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// usernameTaken reports whether another row (id != except) has username.
func (s *UserStore) usernameTaken(db *gorm.DB, m *schema.Mapping, username string, except int64) (bool, error) {
	query, err := m.SelectBy(schema.Username, false)
	if err != nil {
		return false, err
	}
	var users []UserRecord
	if err := db.Raw(query, username).Scan(&users).Error; err != nil {
		return false, err
	}
	for _, u := range users {
		if u.ID != except {
			return true, nil
		}
	}
	return false, nil
}

// Create hashes the password and inserts the user. The stored row is
// returned in its logical shape, without the password hash.
func (s *UserStore) Create(ctx context.Context, in UserInput) (*UserRecord, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, invalid("Username and password are required.")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	m, db, err := s.mapping(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.Require(schema.PasswordHash); err != nil {
		return nil, err
	}
	taken, err := s.usernameTaken(db, m, in.Username, 0)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return nil, conflict("Username %q already exists.", in.Username)
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	values := append([]schema.Assignment{{Field: schema.PasswordHash, Value: hash}}, in.assignments()...)
	query, args, err := m.Insert(values)
	if err != nil {
		return nil, err
	}

	var rows []UserRecord
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("Username %q already exists.", in.Username)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("creating user: no row returned")
	}
	return &rows[0], nil
}

// Update replaces every writable field of the user except the password.
func (s *UserStore) Update(ctx context.Context, id int64, in UserInput) (*UserRecord, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	m, db, err := s.mapping(ctx)
	if err != nil {
		return nil, err
	}
	taken, err := s.usernameTaken(db, m, in.Username, id)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return nil, conflict("Username %q already exists.", in.Username)
	}

	query, args, err := m.Update(id, in.assignments(), true)
	if err != nil {
		return nil, err
	}
	var rows []UserRecord
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("Username %q already exists.", in.Username)
		}
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, notFound("User")
	}
	return &rows[0], nil
}

func (s *UserStore) SetPassword(ctx context.Context, id int64, password, updatedBy string) error {
	if password == "" {
		return invalid("Password is required.")
	}
	if updatedBy == "" {
		updatedBy = "system"
	}
	m, db, err := s.mapping(ctx)
	if err != nil {
		return err
	}
	if err := m.Require(schema.PasswordHash); err != nil {
		return err
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	query, args, err := m.Update(id, []schema.Assignment{
		{Field: schema.PasswordHash, Value: hash},
		{Field: schema.UpdatedBy, Value: updatedBy},
	}, false)
	if err != nil {
		return err
	}
	res := db.Exec(query, args...)
	if res.Error != nil {
		return fmt.Errorf("updating password of user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("User")
	}
	return nil
}

// Delete removes the user; deleting a missing id is not an error.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	m, db, err := s.mapping(ctx)
	if err != nil {
		return err
	}
	if err := db.Exec(m.Delete(), id).Error; err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	return nil
}

// Authenticate checks the credentials and stamps last_login when the table
// has that column.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*UserRecord, error) {
	if username == "" || password == "" {
		return nil, invalid("Username and password are required.")
	}
	m, db, err := s.mapping(ctx)
	if err != nil {
		return nil, err
	}
	query, err := m.SelectBy(schema.Username, true)
	if err != nil {
		return nil, err
	}
	var rows []userWithHash
	if err := db.Raw(query, username).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading user %q: %w", username, err)
	}
	if len(rows) == 0 || rows[0].PasswordHash == nil || !util.CheckPassword(*rows[0].PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	user := rows[0].UserRecord
	if !user.Active() {
		return nil, ErrInactive
	}

	if touch, ok := m.Touch(schema.LastLogin); ok {
		if err := db.Exec(touch, user.ID).Error; err != nil {
			return nil, fmt.Errorf("recording login of %q: %w", username, err)
		}
	}
	return &user, nil
}
