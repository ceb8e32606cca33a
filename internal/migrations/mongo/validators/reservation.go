package validators

import "go.mongodb.org/mongo-driver/bson"

var objectIDHex = bson.M{
	"bsonType": "string",
	"pattern":  "^[0-9a-f]{24}$",
}

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"title",
			"start_time",
			"end_time",
			"status",
			"attendees",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"room_id": objectIDHex,

			"user_id": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},

			"organizer_email": bson.M{
				"bsonType": "string",
			},

			"guest_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"guest_email": bson.M{
				"bsonType": "string",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"enum": []string{"confirmed", "cancelled"},
			},

			"attendees": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  500,
			},

			"guest_emails": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"is_recurring": bson.M{
				"bsonType": "bool",
			},

			"recurrence_pattern": bson.M{
				"enum": []string{"DAILY", "WEEKLY", "MONTHLY"},
			},

			"recurrence_interval": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"recurrence_days_of_week": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": []string{"int", "long"},
					"minimum":  0,
					"maximum":  6,
				},
			},

			"recurrence_end_date": bson.M{
				"bsonType": "date",
			},

			"recurrence_rule": bson.M{
				"bsonType": "string",
			},

			"parent_id": objectIDHex,

			"reminder_sent": bson.M{
				"bsonType": "bool",
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
