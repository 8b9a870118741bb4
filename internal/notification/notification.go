/*
Copyright 2025 OCMS Project Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/internal/request"
)

// SlackNotification posts an error to the operations Slack channel. Used
// for job failures that need an officer's attention before the next run.
func SlackNotification(err error) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "Error From OCMS 🐞",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Error:*\n%v"
					}
				]
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%v"
					}
				]
			}
		]
	}`, err.Error(), time.Now().Format(time.RFC822)))

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	payload, err := request.ToJsonReq(&data)
	if err != nil {
		log.Println(err)
		return
	}

	req, err := http.NewRequest("POST", conf.Notification.Slack.WebhookUrl, payload)
	if err != nil {
		log.Println(err)
		return
	}

	var response map[string]interface{}
	_, err = request.Call(req, &response)
	if err != nil {
		log.Println(err)
	}
}

// NotifyError reports a system error asynchronously: it is logged locally
// and, when a webhook is configured, forwarded to Slack.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification(systemError)
		}
	}(systemError)
}

type gatewayMessage struct {
	Recipient string `json:"recipient"`
	NoticeNo  string `json:"notice_no"`
	Template  string `json:"template"`
	Body      string `json:"body"`
}

type gatewayResponse struct {
	Accepted bool `json:"accepted"`
}

// SendEmail delivers an owner-facing email through the agency messaging
// gateway. The boolean reports gateway acceptance only; a false return is
// logged but never fails the calling operation.
func SendEmail(recipient, noticeNo, template, body string) bool {
	return sendGatewayMessage("email", recipient, noticeNo, template, body)
}

// SendSMS delivers an owner-facing SMS through the agency messaging
// gateway. Same contract as SendEmail.
func SendSMS(recipient, noticeNo, template, body string) bool {
	return sendGatewayMessage("sms", recipient, noticeNo, template, body)
}

func sendGatewayMessage(channel, recipient, noticeNo, template, body string) bool {
	if recipient == "" {
		return false
	}

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return false
	}

	url := conf.Notification.Gateway.EmailUrl
	if channel == "sms" {
		url = conf.Notification.Gateway.SmsUrl
	}
	if url == "" {
		logrus.Warnf("%s gateway not configured, dropping notification for notice %s", channel, noticeNo)
		return false
	}

	payload, err := request.ToJsonReq(&gatewayMessage{
		Recipient: recipient,
		NoticeNo:  noticeNo,
		Template:  template,
		Body:      body,
	})
	if err != nil {
		log.Println(err)
		return false
	}

	req, err := http.NewRequest("POST", url, payload)
	if err != nil {
		log.Println(err)
		return false
	}

	var response gatewayResponse
	resp, err := request.Call(req, &response)
	if err != nil {
		logrus.Errorf("%s gateway call failed for notice %s: %v", channel, noticeNo, err)
		return false
	}
	if resp.StatusCode >= http.StatusBadRequest {
		logrus.Errorf("%s gateway returned %d for notice %s", channel, resp.StatusCode, noticeNo)
		return false
	}
	return response.Accepted
}
