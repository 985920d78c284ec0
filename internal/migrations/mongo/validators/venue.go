package validators

import "go.mongodb.org/mongo-driver/bson"

const clockPattern = `^([01][0-9]|2[0-3]):[0-5][0-9]$`

var VenueValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"description",
			"address",
			"owner",
			"sports",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 2000,
			},

			"address": bson.M{
				"bsonType": "object",
				"required": []string{"street", "city", "state", "zip_code"},
				"properties": bson.M{
					"street":   bson.M{"bsonType": "string"},
					"city":     bson.M{"bsonType": "string"},
					"state":    bson.M{"bsonType": "string"},
					"zip_code": bson.M{"bsonType": "string"},
					"coordinates": bson.M{
						"bsonType": "object",
						"properties": bson.M{
							"lat": bson.M{"bsonType": "double", "minimum": -90, "maximum": 90},
							"lng": bson.M{"bsonType": "double", "minimum": -180, "maximum": 180},
						},
					},
				},
			},

			"owner": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"sports": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 20,
				"items":    bson.M{"bsonType": "string"},
			},

			"amenities": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    bson.M{"bsonType": "string"},
			},

			"photos": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 20,
				"items":    bson.M{"bsonType": "string"},
			},

			"courts": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"_id", "name", "sport_type", "price_per_hour", "is_active"},
					"properties": bson.M{
						"_id":            bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
						"name":           bson.M{"bsonType": "string"},
						"sport_type":     bson.M{"bsonType": "string"},
						"price_per_hour": bson.M{"bsonType": []string{"double", "int", "long", "decimal"}, "minimum": 0},
						"is_active":      bson.M{"bsonType": "bool"},
						"operating_hours": bson.M{
							"bsonType": "object",
							"properties": bson.M{
								"start": bson.M{"bsonType": "string", "pattern": clockPattern},
								"end":   bson.M{"bsonType": "string", "pattern": clockPattern},
							},
						},
					},
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"approved",
					"rejected",
				},
			},

			"rejection_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
