package uiautomator2

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Source returns the full UI hierarchy as XML.
func (c *Client) Source() (string, error) {
	data, err := c.request("GET", c.sessionPath("/source"), nil)
	if err != nil {
		return "", err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}

	src, _ := resp.Value.(string)
	return src, nil
}

// Screenshot captures the current screen as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	data, err := c.request("GET", c.sessionPath("/screenshot"), nil)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	b64, ok := resp.Value.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected screenshot response")
	}

	return base64.StdEncoding.DecodeString(b64)
}

// Click taps the given screen coordinates.
func (c *Client) Click(x, y int) error {
	req := ClickRequest{
		Offset: &PointModel{X: x, Y: y},
	}
	_, err := c.request("POST", c.sessionPath("/appium/gestures/click"), req)
	return err
}

// PressKeyCode sends an Android key code.
func (c *Client) PressKeyCode(keyCode int) error {
	req := KeyCodeRequest{KeyCode: keyCode}
	_, err := c.request("POST", c.sessionPath("/appium/device/press_keycode"), req)
	return err
}

// Back navigates back by pressing the Android back key.
func (c *Client) Back() error {
	return c.PressKeyCode(KeyCodeBack)
}
