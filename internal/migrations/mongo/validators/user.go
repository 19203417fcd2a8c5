package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "name", "income"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"name": bson.M{
				"bsonType": "string",
			},
			"wallet_id": bson.M{
				"bsonType": "string",
			},
			"income": bson.M{
				"bsonType": []string{"long", "int"},
				"minimum":  0,
			},
			"bookings": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
			"listings": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
		},
	},
}
