package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user",
			"venue",
			"court",
			"date",
			"time_slot",
			"duration",
			"total_price",
			"status",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"venue": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"court": bson.M{
				"bsonType": "object",
				"required": []string{"court_id", "name", "sport_type"},
				"properties": bson.M{
					"court_id": bson.M{
						"bsonType":  "string",
						"minLength": 24,
						"maxLength": 24,
					},
					"name":       bson.M{"bsonType": "string"},
					"sport_type": bson.M{"bsonType": "string"},
				},
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"time_slot": bson.M{
				"bsonType": "object",
				"required": []string{"start", "end"},
				"properties": bson.M{
					"start": bson.M{
						"bsonType": "string",
						"pattern":  clockPattern,
					},
					"end": bson.M{
						"bsonType": "string",
						"pattern":  clockPattern,
					},
				},
			},

			"duration": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  8,
			},

			"total_price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
					"completed",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"completed",
					"refunded",
				},
			},

			"cancellation_reason": bson.M{
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

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "owner", "expires_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  "^slot:",
			},
			"owner": bson.M{
				"bsonType": "string",
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
