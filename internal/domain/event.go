package domain

import "encoding/json"

// EventBridge detail-types this service reacts to.
const (
	DetailTypeCloudTrailCall = "AWS API Call via CloudTrail"
	DetailTypeObjectCreated  = "Object Created"
)

// Envelope is the EventBridge wrapper both triggers arrive in.
type Envelope struct {
	ID         string          `json:"id"`
	DetailType string          `json:"detail-type"`
	Source     string          `json:"source"`
	Time       string          `json:"time"`
	Region     string          `json:"region"`
	Detail     json.RawMessage `json:"detail"`
}

// DetailOf returns the detail of body when body is an envelope, and body
// itself when it is a bare detail.
func DetailOf(body []byte) json.RawMessage {
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 && env.DetailType != "" {
		return env.Detail
	}
	return json.RawMessage(body)
}

// SessionStartDetail is the CloudTrail record for ExecuteCommand.
type SessionStartDetail struct {
	EventName    string `json:"eventName"`
	UserIdentity struct {
		Arn string `json:"arn"`
	} `json:"userIdentity"`
	RequestParameters struct {
		Cluster string `json:"cluster"`
		Task    string `json:"task"`
	} `json:"requestParameters"`
	ResponseElements struct {
		TaskArn string `json:"taskArn"`
		Session struct {
			SessionID string `json:"sessionId"`
		} `json:"session"`
	} `json:"responseElements"`
}

// LogDeliveredDetail is the S3 "Object Created" detail.
type LogDeliveredDetail struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key  string `json:"key"`
		Size int64  `json:"size"`
	} `json:"object"`
}
