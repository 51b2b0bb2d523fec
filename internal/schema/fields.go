package schema

import "deskhub/internal/balance"

// Field is a logical column of the users table, independent of the name it
// is stored under.
type Field string

const (
	ID           Field = "id"
	Username     Field = "username"
	FullName     Field = "full_name"
	Email        Field = "email"
	Role         Field = "role"
	IsActive     Field = "is_active"
	LastLogin    Field = "last_login"
	UpdatedOn    Field = "updated_on"
	UpdatedBy    Field = "updated_by"
	CreatedAt    Field = "created_at"
	PasswordHash Field = "password_hash"
	NricFin      Field = "nric_fin"
	MobileNo     Field = "mobile_no"
	Address1     Field = "address1"
	Address2     Field = "address2"
	Address3     Field = "address3"
	Birthdate    Field = "birthdate"
	Office       Field = "office"
)

// Kind is the SQL type used when an absent column is projected as a literal.
type Kind int

const (
	Text Kind = iota
	Numeric
	Boolean
	Timestamp
	Date
	Integer
)

func (k Kind) sqlType() string {
	switch k {
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case Timestamp:
		return "timestamp"
	case Date:
		return "date"
	case Integer:
		return "integer"
	default:
		return "text"
	}
}

type fieldSpec struct {
	field    Field
	kind     Kind
	synonyms []string
	// fallback replaces NULL in the read projection when the column is absent.
	fallback string
	// secret fields resolve but are never projected.
	secret bool
}

// BenefitField names the logical column of one part ("total", "used",
// "balance") of a benefit triple, e.g. user_leave_total.
func BenefitField(cat balance.Category, part string) Field {
	return Field("user_" + string(cat) + "_" + part)
}

// BenefitParts is the order of a triple's columns.
var BenefitParts = []string{"total", "used", "balance"}

var usersFields = buildUsersFields()

func buildUsersFields() []fieldSpec {
	specs := []fieldSpec{
		{field: ID, kind: Integer, synonyms: []string{"id", "user_id"}},
		{field: Username, kind: Text, synonyms: []string{"username", "user_name", "name"}},
		{field: FullName, kind: Text},
		{field: Email, kind: Text, synonyms: []string{"email", "user_email", "email_address", "mail", "useremail"}},
		{field: Role, kind: Text, fallback: "CAST('user' AS text)"},
		{field: IsActive, kind: Boolean, fallback: "CAST(TRUE AS boolean)"},
		{field: LastLogin, kind: Timestamp},
		{field: UpdatedOn, kind: Timestamp},
		{field: UpdatedBy, kind: Text},
		{field: CreatedAt, kind: Timestamp},
		{field: PasswordHash, kind: Text, secret: true},
		{field: NricFin, kind: Text},
		{field: MobileNo, kind: Text},
		{field: Address1, kind: Text},
		{field: Address2, kind: Text},
		{field: Address3, kind: Text},
		{field: Birthdate, kind: Date},
		{field: Office, kind: Text, synonyms: []string{"office", "office_location"}},
	}
	for _, part := range BenefitParts {
		for _, cat := range balance.Categories {
			specs = append(specs, fieldSpec{field: BenefitField(cat, part), kind: Numeric})
		}
	}
	for i := range specs {
		if len(specs[i].synonyms) == 0 {
			specs[i].synonyms = []string{string(specs[i].field)}
		}
	}
	return specs
}

// Fields lists every logical field in projection order, secret ones included.
func Fields() []Field {
	out := make([]Field, len(usersFields))
	for i, s := range usersFields {
		out[i] = s.field
	}
	return out
}
