package main

import "github.com/olduvai-jp/ComfyUI-S3-IO/cmd"

func main() {
	cmd.Execute()
}
