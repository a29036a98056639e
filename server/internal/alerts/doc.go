// Package alerts raises notifications when a prediction hits a condition
// that means the model and its configuration have drifted apart: a label with
// no interpretation, or artifacts whose shape no longer matches the feature
// contract. Webhooks are delivered to Teams, Slack, or generic HTTP targets.
package alerts
