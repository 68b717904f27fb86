package vkdriver

import (
	"github.com/andewx/dieselsprite/render"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

//check turns a failed Vulkan result into a fatal renderer error
func check(op string, ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return &render.Error{Kind: render.Fatal, Op: op, Result: ret, Err: vk.Error(ret)}
}

//fail marks err fatal unless it already carries a renderer classification
func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *render.Error
	if errors.As(err, &re) {
		return err
	}
	return &render.Error{Kind: render.Fatal, Op: op, Err: err}
}
