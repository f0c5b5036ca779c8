package mongoclient

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestDecimalCodec(t *testing.T) {
	req := require.New(t)

	type doc struct {
		Price decimal.Decimal `bson:"price"`
		Name  string          `bson:"name"`
	}

	raw, err := Marshal(&doc{Price: decimal.RequireFromString("0.000000000000000001"), Name: "a"})
	req.NoError(err)

	v := raw.Lookup("price")
	req.Equal(bsontype.String, v.Type)
	req.Equal("0.000000000000000001", v.StringValue())

	res := &doc{}
	req.NoError(Unmarshal(raw, res))
	req.True(decimal.RequireFromString("0.000000000000000001").Equal(res.Price))
	req.Equal("a", res.Name)
}

func TestDecimalCodecNull(t *testing.T) {
	req := require.New(t)

	raw, err := bson.Marshal(bson.M{"price": nil})
	req.NoError(err)

	res := &struct {
		Price decimal.Decimal `bson:"price"`
	}{Price: decimal.NewFromInt(3)}
	req.NoError(Unmarshal(raw, res))
	req.True(res.Price.IsZero())
}

func TestDecimalCodecWrongType(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"price": 12})
	require.NoError(t, err)

	res := &struct {
		Price decimal.Decimal `bson:"price"`
	}{}
	require.Error(t, Unmarshal(raw, res))
}
