package validators

import "go.mongodb.org/mongo-driver/bson"

var ListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"host",
			"title",
			"description",
			"image",
			"type",
			"address",
			"country",
			"city",
			"num_of_guests",
			"price",
			"bookings_index",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"host": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 5000,
			},

			"image": bson.M{
				"bsonType": "string",
			},

			"type": bson.M{
				"enum": []string{"apartment", "house"},
			},

			"city": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"num_of_guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"price": bson.M{
				"bsonType": []string{"long", "int"},
				"minimum":  1,
			},

			// Older documents carry the nested year/month/day object.
			"bookings_index": bson.M{
				"bsonType": []string{"array", "object"},
			},

			"bookings": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
		},
	},
}
