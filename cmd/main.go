/*
 *  main.go
 *  cmd
 *
 *  Created by Haibao Tang on 12/12/19
 *  Copyright © 2019 Haibao Tang. All rights reserved.
 */

package main

import (
	"log"

	"github.com/op/go-logging"
	"github.com/tanghaibao/allphase"
)

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(allphase.BackendFormatter)
	err := allphase.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
