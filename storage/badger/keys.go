// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import "encoding/binary"

const (
	metaDimensionKey = "idxmeta:dimension"
	pointPrefix      = "idxpt:"
)

// makeNamespacePrefix returns the key prefix shared by all points of namespace.
// Format: prefix namespace 0x00
func makeNamespacePrefix(namespace string) []byte {
	buf := make([]byte, 0, len(pointPrefix)+len(namespace)+1)
	buf = append(buf, pointPrefix...)
	buf = append(buf, namespace...)
	return append(buf, 0)
}

// makePointKey generates the key of a point.
// Format: prefix namespace 0x00 pointID(8 bytes BE)
func makePointKey(namespace string, pointID uint64) []byte {
	buf := makeNamespacePrefix(namespace)
	return binary.BigEndian.AppendUint64(buf, pointID)
}
