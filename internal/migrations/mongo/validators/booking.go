package validators

import "go.mongodb.org/mongo-driver/bson"

var datePattern = `^\d{4}-\d{2}-\d{2}$`

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"listing",
			"tenant",
			"check_in",
			"check_out",
			"total_price",
			"intent_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"listing": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"tenant": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"check_in": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},

			"check_out": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},

			"total_price": bson.M{
				"bsonType": []string{"long", "int"},
				"minimum":  1,
			},

			"charge_id": bson.M{
				"bsonType": "string",
			},

			"intent_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string", "minLength": 1},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
