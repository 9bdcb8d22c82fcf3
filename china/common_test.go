package china

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/futuresworkshop/workshop/utils"
	"github.com/h2non/gock"
)

type GockItem struct {
	Method  string `json:"method"`
	URL     string `json:"url"`
	Status  int    `json:"status"`
	RspType string `json:"rsp_type"`
	RspPath string `json:"rsp_path"`
}

/*
LoadGockItems
register the mocked exchange documents listed in a json file
*/
func LoadGockItems(path string) error {
	var items = make([]GockItem, 0)
	err := utils.ReadJsonFile(path, &items)
	if err != nil {
		return err
	}
	for i, item := range items {
		if item.URL == "" {
			return fmt.Errorf("url is required for %d item", i+1)
		}
		if item.RspPath == "" {
			return fmt.Errorf("rsp_path is required for %d item", i+1)
		}
		u, err := url.Parse(item.URL)
		if err != nil {
			return err
		}
		req := gock.New(u.Scheme + "://" + u.Host)
		switch strings.ToLower(item.Method) {
		case "", "get":
			req = req.Get(u.Path)
		case "post":
			req = req.Post(u.Path)
		default:
			return fmt.Errorf("invalid gock method: %s", item.Method)
		}
		req.Persist()
		if item.Status == 0 {
			item.Status = 200
		}
		rsp := req.Reply(item.Status)
		if item.RspType != "" {
			rsp = rsp.Type(item.RspType)
		}
		rsp.File("testdata/" + item.RspPath)
	}
	return nil
}
