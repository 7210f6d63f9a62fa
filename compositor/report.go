// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package compositor

import (
	"errors"
	"fmt"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/common/ipc"
	"github.com/mstarongithub/wayspace/space"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

var ErrNoModes = errors.New("backend can't list modes")

func ipcMode(m space.Mode, preferred bool) ipc.OutputMode {
	return ipc.OutputMode{
		Width:       m.Size.X,
		Height:      m.Size.Y,
		RefreshRate: m.Refresh,
		Preferred:   preferred,
	}
}

// OutputReport answers an output request with what b knows about its outputs.
// Placements are only filled in if sp is not nil
func OutputReport(b backend.Backend, sp *space.Space, req ipc.OutputRequest) (ipc.OutputResponse, error) {
	outputs := b.Outputs()
	if req.SpecifiesOutput {
		outputs = sliceutils.Filter(outputs, func(o *space.Output) bool {
			return o.Name == req.TargetOutput
		})
		if len(outputs) == 0 {
			return ipc.OutputResponse{}, fmt.Errorf("%w: %s", backend.ErrUnknownOutput, req.TargetOutput)
		}
	}

	resp := ipc.OutputResponse{OutputsFound: len(outputs)}
	for _, o := range outputs {
		resp.Outputs = append(resp.Outputs, o.Name)
	}

	if sp != nil {
		resp.Placements = map[string]ipc.OutputPlacement{}
		for _, o := range outputs {
			mapped := sp.Output(o.Name)
			if mapped == nil {
				continue
			}
			loc := mapped.Location()
			resp.Placements[o.Name] = ipc.OutputPlacement{
				X:       loc.X,
				Y:       loc.Y,
				Scale:   mapped.EffectiveScale(),
				Current: ipcMode(mapped.Mode, false),
			}
		}
	}

	if req.IncludeModes {
		lister, ok := b.(backend.ModeLister)
		if !ok {
			return resp, fmt.Errorf("%w: %s", ErrNoModes, b.Name())
		}
		resp.OutputModes = map[string][]ipc.OutputMode{}
		for _, o := range outputs {
			modes, err := lister.Modes(o.Name)
			if err != nil {
				return resp, err
			}
			for _, m := range modes {
				resp.OutputModes[o.Name] = append(resp.OutputModes[o.Name], ipcMode(m.Mode, m.Preferred))
			}
		}
	}
	return resp, nil
}
