package test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"os"
)

// Environment for integration tests:
// 1. download service-account.json from https://console.firebase.google.com/project/_/settings/serviceaccounts/adminsdk
// 2. create environment variable "GOOGLE_APPLICATION_CREDENTIALS" with path to service-account.json
// 3. create file with the device of the app. format:
//	{
//     "application": "<bundle id>",
//     "ios": "<apns device token in hex>"
//	}
// 4. create environment variable "PUSH_DEVICES" with path to file with the device

type Device struct {
	Application string `json:"application"`
	IOS         string `json:"ios"`
}

func (d *Device) APNSToken() ([]byte, error) {
	return hex.DecodeString(d.IOS)
}

func GetPushDevice() (*Device, error) {

	path := os.Getenv("PUSH_DEVICES")
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	device := &Device{}

	r := bytes.NewReader(data)
	if err := json.NewDecoder(r).Decode(device); err != nil {
		return nil, err
	}

	return device, nil
}

func GetPathToGoogleServiceAccount() (string, error) {

	path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	_, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	return path, nil
}
