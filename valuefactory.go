package dancer

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/ordinaryparksee/dancer/genfaker"
	"github.com/ordinaryparksee/dancer/schema"
)

// ValueFactory maps a column's (type, width, signedness) to a random
// value, delegating strings/dates/text to a Faker collaborator.
type ValueFactory struct {
	Faker  genfaker.Faker
	Rand   *rand.Rand
	Policy FakePolicy
}

// NewValueFactory returns a ValueFactory backed by faker and rng.
func NewValueFactory(faker genfaker.Faker, rng *rand.Rand, policy FakePolicy) *ValueFactory {
	return &ValueFactory{Faker: faker, Rand: rng, Policy: policy}
}

// Generate produces one value for col based on its parsed type.
// ErrUnknownColumnType is returned (wrapped with the column name) for
// any base type this factory has no generator for.
func (vf *ValueFactory) Generate(col *schema.Column) (any, error) {
	switch col.Type {
	case schema.TypeTinyInt, schema.TypeSmallInt, schema.TypeMediumInt, schema.TypeInt, schema.TypeBigInt:
		return vf.integer(col), nil
	case schema.TypeChar:
		return vf.Faker.RandomLetters(col.Length), nil
	case schema.TypeVarchar:
		return vf.varchar(col), nil
	case schema.TypeText, schema.TypeLongText:
		return vf.text(), nil
	case schema.TypeFloat:
		return vf.float(col), nil
	case schema.TypeDecimal:
		return vf.decimal(col), nil
	case schema.TypeEnum:
		return vf.Faker.RandomElement(col.EnumValues), nil
	case schema.TypeSet:
		return strings.Join(vf.Faker.RandomElements(col.EnumValues), ","), nil
	case schema.TypeDate:
		return vf.Faker.Date(), nil
	case schema.TypeDateTime, schema.TypeTimestamp:
		// Normalized to a single time.Time representation for both
		// datetime and timestamp columns; see DESIGN.md's Open
		// Question resolution on timestamp representation.
		return vf.Faker.DateTime(), nil
	default:
		return nil, fmt.Errorf("%w: %s.%s (%s)", ErrUnknownColumnType, col.Table.Name, col.Name, col.RawType)
	}
}

func (vf *ValueFactory) integer(col *schema.Column) int64 {
	width := col.Type.BitWidth()
	if width == 0 {
		width = 32
	}

	if col.Unsigned {
		if width >= 64 {
			// A full 64-bit unsigned range doesn't fit in int64's
			// Int63n(max+1) without overflowing; Int63 already
			// produces a uniformly random non-negative int64, which
			// is a valid (if narrower) BIGINT UNSIGNED value.
			return vf.Rand.Int63()
		}
		max := int64(1)<<uint(width) - 1
		return vf.Rand.Int63n(max + 1)
	}

	min := -(int64(1) << uint(width-1))
	max := int64(1)<<uint(width-1) - 1
	if vf.Policy.PreventNegative {
		min = 0
	}
	span := max - min + 1
	if span <= 0 {
		span = max
	}
	return min + vf.Rand.Int63n(span)
}

func (vf *ValueFactory) varchar(col *schema.Column) string {
	if vf.Rand.Float64() < vf.Policy.EmptyRatio {
		return ""
	}
	if col.Length < 5 {
		n := col.Length
		if n < 1 {
			n = 1
		}
		return vf.Faker.RandomLetters(1 + vf.Rand.Intn(n))
	}
	return vf.Faker.Text(col.Length)
}

func (vf *ValueFactory) text() string {
	if vf.Rand.Float64() < vf.Policy.EmptyRatio {
		return ""
	}
	return vf.Faker.Sentence()
}

func (vf *ValueFactory) float(col *schema.Column) float64 {
	if col.Precision == 0 && col.Scale == 0 {
		return vf.Rand.Float64() * float64(1+vf.Rand.Intn(12))
	}
	return vf.formattedDecimal(col)
}

func (vf *ValueFactory) decimal(col *schema.Column) float64 {
	return vf.formattedDecimal(col)
}

// formattedDecimal builds a #…#[.#…#] bothify pattern from
// (precision, scale) and parses the result back to a float64. Used for
// both float and decimal columns that carry a size.
func (vf *ValueFactory) formattedDecimal(col *schema.Column) float64 {
	intDigits := col.Precision - col.Scale
	if intDigits < 1 {
		intDigits = 1
	}
	pattern := strings.Repeat("#", intDigits)
	if col.Scale > 0 {
		pattern += "." + strings.Repeat("#", col.Scale)
	}
	out := vf.Faker.Bothify(pattern)
	v, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0
	}
	return v
}
