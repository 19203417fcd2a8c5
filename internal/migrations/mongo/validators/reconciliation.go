package validators

import "go.mongodb.org/mongo-driver/bson"

var ReconciliationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "charge_id", "listing", "tenant", "amount", "status"},
		"properties": bson.M{
			"_id":       bson.M{"bsonType": "string", "minLength": 1},
			"charge_id": bson.M{"bsonType": "string"},
			"amount":    bson.M{"bsonType": []string{"long", "int"}},
			"status":    bson.M{"enum": []string{"open", "resolved"}},
		},
	},
}
