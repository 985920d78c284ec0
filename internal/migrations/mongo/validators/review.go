package validators

import "go.mongodb.org/mongo-driver/bson"

var ReviewValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"user", "venue", "booking", "rating", "comment", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"user": bson.M{
				"bsonType": "string",
				"pattern":  "^[a-f0-9]{24}$",
			},
			"venue": bson.M{
				"bsonType": "string",
				"pattern":  "^[a-f0-9]{24}$",
			},
			"booking": bson.M{
				"bsonType": "string",
				"pattern":  "^[a-f0-9]{24}$",
			},
			"rating": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  5,
			},
			"comment": bson.M{
				"bsonType":  "string",
				"minLength": 5,
				"maxLength": 1000,
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
